// Package policy implements the pre-execution policy gate. Every command the
// self-healing loop is asked to run passes through the gate first; a critical
// violation means the command never executes.
//
// The gate is pure: it inspects the command line against the configured rule
// lists and reports violations. It never mutates state and never runs
// anything itself.
package policy

import (
	"fmt"
	"strings"

	"remedy/internal/config"
	"remedy/internal/logging"
)

// Severity ranks a violation. Only critical violations block execution.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Violation describes one policy rule the command line breaks.
type Violation struct {
	// Rule names the violated rule (e.g. "destructive-operation").
	Rule string `json:"rule"`

	// Severity ranks the violation.
	Severity Severity `json:"severity"`

	// Message explains what matched.
	Message string `json:"message"`

	// Remediation tells the caller how to proceed, if an override exists.
	Remediation string `json:"remediation,omitempty"`
}

// Rule names reported in violations.
const (
	RuleDestructiveOperation = "destructive-operation"
	RuleSensitivePath        = "sensitive-path"
	RuleResourceWhitelist    = "resource-whitelist"
)

// Gate classifies candidate commands against destructive/whitelist/sensitive
// rules. Construct once with the loaded config and share freely; the gate
// holds no mutable state.
type Gate struct {
	rules config.PolicyConfig
}

// NewGate creates a policy gate from the loaded configuration.
func NewGate(cfg *config.Config) *Gate {
	return &Gate{rules: cfg.Policy}
}

// Validate checks a command line against all policy rules and returns every
// violation found. An empty slice means the command may execute.
func (g *Gate) Validate(command string, args []string, workingDir string) []Violation {
	violations := make([]Violation, 0)
	full := commandLine(command, args)

	if g.IsDestructive(command, args) {
		logging.PolicyWarn("Blocked destructive command: %s", full)
		violations = append(violations, Violation{
			Rule:     RuleDestructiveOperation,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("command %q matches a destructive operation rule", full),
			Remediation: "re-run with an explicit override flag if this operation " +
				"is intentional, or narrow the command to a non-destructive form",
		})
	}

	// Arguments that reach into sensitive paths are blocked outright; the
	// engine must never patch or delete version-control metadata, dependency
	// caches, or secret files.
	for _, arg := range args {
		if looksLikePath(arg) && g.IsSensitivePath(arg) {
			logging.PolicyWarn("Sensitive path in arguments: %s", arg)
			violations = append(violations, Violation{
				Rule:        RuleSensitivePath,
				Severity:    SeverityCritical,
				Message:     fmt.Sprintf("argument %q touches a protected path", arg),
				Remediation: "operate on a copy outside the protected location",
			})
		}
	}

	if workingDir != "" && g.IsSensitivePath(workingDir) {
		violations = append(violations, Violation{
			Rule:     RuleSensitivePath,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("working directory %q is inside a protected location", workingDir),
		})
	}

	// Container tools must pull/run whitelisted images only.
	if resource, ok := containerResource(command, args); ok && !g.IsWhitelisted(resource) {
		violations = append(violations, Violation{
			Rule:        RuleResourceWhitelist,
			Severity:    SeverityError,
			Message:     fmt.Sprintf("resource %q does not match any whitelisted prefix", resource),
			Remediation: fmt.Sprintf("use a resource named with one of the allowed prefixes: %s", strings.Join(g.rules.WhitelistPrefixes, ", ")),
		})
	}

	logging.PolicyDebug("Validate %q -> %d violation(s)", full, len(violations))
	return violations
}

// IsDestructive reports whether the command matches the destructive-verb
// rules. The primary list is matched exactly against the command name or as
// a prefix of the full command line; the secondary heuristic (force flags,
// schema keywords) applies only to commands already in the potentially
// destructive set, to avoid false positives on unrelated tools.
func (g *Gate) IsDestructive(command string, args []string) bool {
	full := strings.ToLower(commandLine(command, args))
	name := strings.ToLower(command)

	// Primary list: exact command-name or command-line prefix match wins.
	for _, entry := range g.rules.DestructiveCommands {
		entry = strings.ToLower(entry)
		if name == entry || strings.HasPrefix(full, entry+" ") || full == entry {
			return true
		}
	}

	// Secondary heuristic: only for the potentially destructive set.
	if !containsString(g.rules.PotentiallyDestructive, name) {
		return false
	}
	for _, flag := range g.rules.ForceFlags {
		if containsToken(full, strings.ToLower(flag)) {
			return true
		}
	}
	for _, kw := range g.rules.SchemaKeywords {
		if strings.Contains(full, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// IsWhitelisted reports whether a resource name starts with a configured
// prefix. The match is a simple case-sensitive prefix comparison.
func (g *Gate) IsWhitelisted(resource string) bool {
	for _, prefix := range g.rules.WhitelistPrefixes {
		if strings.HasPrefix(resource, prefix) {
			return true
		}
	}
	return false
}

// IsSensitivePath reports whether the normalized (forward-slash, lowercased)
// path contains any configured sensitive substring.
func (g *Gate) IsSensitivePath(path string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	for _, s := range g.rules.SensitivePaths {
		if strings.Contains(normalized, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Blocking returns the first critical violation, or nil if none blocks
// execution.
func Blocking(violations []Violation) *Violation {
	for i := range violations {
		if violations[i].Severity == SeverityCritical {
			return &violations[i]
		}
	}
	return nil
}

// commandLine joins the command and its arguments for matching and display.
func commandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}

// containsToken reports whether tok appears as a whitespace-delimited token.
// A plain substring check would flag "diff" because it contains "-f".
func containsToken(line, tok string) bool {
	for _, field := range strings.Fields(line) {
		if field == tok {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// looksLikePath is a cheap filter so plain flags are not path-checked.
func looksLikePath(arg string) bool {
	return !strings.HasPrefix(arg, "-")
}

// containerResource extracts the image argument from a container tool
// invocation (docker/podman run|pull <image>).
func containerResource(command string, args []string) (string, bool) {
	if command != "docker" && command != "podman" {
		return "", false
	}
	for i, arg := range args {
		if arg != "run" && arg != "pull" {
			continue
		}
		for _, rest := range args[i+1:] {
			if !strings.HasPrefix(rest, "-") {
				return rest, true
			}
		}
	}
	return "", false
}
