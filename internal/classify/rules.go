package classify

import "regexp"

// rule is one entry in the ordered classification table.
// Rules are evaluated top to bottom and the first match wins, so earlier
// entries deliberately shadow later ones. Keep the most specific patterns
// first; the ordering is a documented contract covered by tests.
type rule struct {
	// name identifies the rule in logs and analyses.
	name string

	// pattern matches against the full error text (case-insensitive).
	pattern *regexp.Regexp

	// category is the taxonomy bucket assigned on match.
	category Category

	// rootCause is the base description; extracted detail is appended.
	rootCause string

	// extract optionally pulls a detail (command name, module name, port)
	// out of the error text. Submatch 1 is used.
	extract *regexp.Regexp

	// detailLabel prefixes the extracted detail in the root cause.
	detailLabel string

	// followUp overrides the category-derived follow-up when set.
	followUp FollowUp

	// steps are rule-specific remediation entries appended to the
	// category defaults.
	steps []string
}

// defaultRules is the built-in ordered classification table.
func defaultRules() []rule {
	return []rule{
		{
			name:        "command-not-found",
			pattern:     regexp.MustCompile(`(?i)command not found|not recognized as an internal or external command`),
			category:    CategoryEnvironment,
			rootCause:   "Required command is not installed or not in PATH",
			extract:     regexp.MustCompile(`(?i)(?:^|[:\s])([\w./-]+): command not found|command not found: (\S+)`),
			detailLabel: "command",
			followUp:    FollowUpValidateEnvironment,
			steps:       []string{"install the missing command or add it to PATH"},
		},
		{
			name:        "node-module-missing",
			pattern:     regexp.MustCompile(`(?i)cannot find module '([^']+)'`),
			category:    CategoryDependency,
			rootCause:   "A required package is not installed",
			extract:     regexp.MustCompile(`(?i)cannot find module '([^']+)'`),
			detailLabel: "module",
			steps:       []string{"run the package manager install step (e.g. npm install <module>)"},
		},
		{
			name:        "python-module-missing",
			pattern:     regexp.MustCompile(`(?i)ModuleNotFoundError: No module named '([^']+)'|ImportError: No module named`),
			category:    CategoryDependency,
			rootCause:   "A required Python module is not installed",
			extract:     regexp.MustCompile(`(?i)No module named '?([\w.]+)'?`),
			detailLabel: "module",
			steps:       []string{"install the module with pip (pip install <module>)"},
		},
		{
			name:        "go-package-missing",
			pattern:     regexp.MustCompile(`(?i)no required module provides package|cannot find package "`),
			category:    CategoryDependency,
			rootCause:   "A required Go package is not in the module graph",
			extract:     regexp.MustCompile(`package "?([\w./-]+)"?`),
			detailLabel: "package",
			steps:       []string{"add the dependency with go get"},
		},
		{
			name:        "port-in-use",
			pattern:     regexp.MustCompile(`(?i)EADDRINUSE|address already in use`),
			category:    CategoryEnvironment,
			rootCause:   "The required port is already in use by another process",
			extract:     regexp.MustCompile(`(?i)(?::|port\s+)(\d{2,5})`),
			detailLabel: "port",
			followUp:    FollowUpValidateEnvironment,
			steps:       []string{"stop the process holding the port or choose a different port"},
		},
		{
			name:      "permission-denied",
			pattern:   regexp.MustCompile(`(?i)permission denied|EACCES|operation not permitted`),
			category:  CategoryEnvironment,
			rootCause: "The process lacks permission for the requested operation",
			steps:     []string{"fix file ownership or mode bits for the target path"},
		},
		{
			name:        "file-not-found",
			pattern:     regexp.MustCompile(`(?i)ENOENT|no such file or directory`),
			category:    CategoryEnvironment,
			rootCause:   "A required file or directory does not exist",
			extract:     regexp.MustCompile(`(?i)(?:open |stat |ENOENT[,:]? ?)'?([\w./\\-]+)'?: (?:no such file|ENOENT)|no such file or directory: '?([\w./\\-]+)'?`),
			detailLabel: "path",
			steps:       []string{"create the missing file or correct the path in the command"},
		},
		{
			name:      "connection-refused",
			pattern:   regexp.MustCompile(`(?i)ECONNREFUSED|connection refused`),
			category:  CategoryNetwork,
			rootCause: "Connection refused: the target service is not accepting connections",
			steps:     []string{"start the target service and verify the host/port"},
		},
		{
			name:      "dns-failure",
			pattern:   regexp.MustCompile(`(?i)ENOTFOUND|getaddrinfo|no such host|name or service not known`),
			category:  CategoryNetwork,
			rootCause: "DNS resolution failed for the target host",
			steps:     []string{"verify the hostname and DNS configuration"},
		},
		{
			name:      "network-timeout",
			pattern:   regexp.MustCompile(`(?i)ETIMEDOUT|timed out|timeout exceeded|deadline exceeded`),
			category:  CategoryNetwork,
			rootCause: "The operation timed out before completing",
			steps:     []string{"check connectivity to the target and retry with a longer timeout"},
		},
		{
			name:        "syntax-error",
			pattern:     regexp.MustCompile(`(?i)SyntaxError|syntax error|unexpected token|unexpected end of (?:file|input)`),
			category:    CategorySpec,
			rootCause:   "The source contains a syntax error",
			extract:     regexp.MustCompile(`(?i)unexpected token '?([^'\s,]+)'?`),
			detailLabel: "token",
			followUp:    FollowUpTriggerSelfHeal,
		},
		{
			name:        "undefined-reference",
			pattern:     regexp.MustCompile(`(?i)ReferenceError|is not defined|undefined:|undeclared name`),
			category:    CategorySpec,
			rootCause:   "The code references an identifier that is not defined",
			extract:     regexp.MustCompile(`(?i)(?:ReferenceError: )?(\w+) is not defined|undefined: (\w+)|undeclared name: (\w+)`),
			detailLabel: "identifier",
			followUp:    FollowUpTriggerSelfHeal,
		},
		{
			name:      "type-error",
			pattern:   regexp.MustCompile(`(?i)TypeError|type mismatch|cannot use .+ as .+ value`),
			category:  CategorySpec,
			rootCause: "A value was used with an incompatible type",
			followUp:  FollowUpTriggerSelfHeal,
		},
		{
			name:      "test-failure",
			pattern:   regexp.MustCompile(`(?i)assertion(?:error)? failed|expected .+ (?:but |to )|tests? failed|FAIL(?:ED)?:`),
			category:  CategorySpec,
			rootCause: "A test assertion failed: implementation diverges from the specification",
			followUp:  FollowUpTriggerSelfHeal,
		},
		{
			name:      "disk-full",
			pattern:   regexp.MustCompile(`(?i)ENOSPC|no space left on device`),
			category:  CategoryEnvironment,
			rootCause: "The filesystem is out of space",
			steps:     []string{"free disk space before retrying"},
		},
	}
}
