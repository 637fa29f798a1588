package classify

import (
	"fmt"
	"strings"

	"remedy/internal/logging"
)

// maxGenericCauseLen bounds the generic root-cause description built from
// unmatched error text.
const maxGenericCauseLen = 100

// Classifier evaluates the ordered rule table against raw error text.
type Classifier struct {
	rules []rule
}

// NewClassifier creates a classifier with the built-in rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

// Analyze classifies raw error text. It always returns a complete analysis
// with a non-empty remediation list; unmatched input falls back to the
// unknown category with a bounded description.
func (c *Classifier) Analyze(errText string) Analysis {
	analysis := Analysis{
		OriginalError: errText,
		Category:      CategoryUnknown,
	}

	matched := c.match(errText)
	if matched != nil {
		analysis.Category = matched.category
		analysis.RootCause = matched.rootCause
		analysis.MatchedRule = matched.name

		// Secondary extraction: pull the specific detail (command name,
		// module, port) out of the text and append it to the root cause.
		if detail := extractDetail(matched, errText); detail != "" {
			analysis.RootCause = fmt.Sprintf("%s (%s: %s)", matched.rootCause, matched.detailLabel, detail)
		}

		logging.ClassifyDebug("Rule %q matched -> category=%s", matched.name, matched.category)
	} else {
		analysis.RootCause = genericRootCause(errText)
		logging.ClassifyDebug("No rule matched, falling back to unknown category")
	}

	analysis.Remediation = buildRemediation(analysis.Category, matched)
	analysis.SuggestedFollowUp = deriveFollowUp(analysis.Category, matched)

	logging.Classify("Analyzed error -> category=%s rule=%s", analysis.Category, analysis.MatchedRule)
	return analysis
}

// match evaluates rules in order and returns the first that fires.
func (c *Classifier) match(errText string) *rule {
	for i := range c.rules {
		if c.rules[i].pattern.MatchString(errText) {
			return &c.rules[i]
		}
	}
	return nil
}

// extractDetail runs the rule's narrower extraction pattern and returns the
// first non-empty submatch.
func extractDetail(r *rule, errText string) string {
	if r.extract == nil {
		return ""
	}
	m := r.extract.FindStringSubmatch(errText)
	if m == nil {
		return ""
	}
	for _, sub := range m[1:] {
		if sub != "" {
			return sub
		}
	}
	return ""
}

// genericRootCause builds a bounded description from the first line of
// unmatched error text.
func genericRootCause(errText string) string {
	line := strings.TrimSpace(errText)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	if line == "" {
		return "Unclassified error with no output"
	}
	if len(line) > maxGenericCauseLen {
		line = line[:maxGenericCauseLen] + "..."
	}
	return "Unclassified error: " + line
}

// buildRemediation produces the category-specific remediation list, with
// rule-specific steps appended. The list is never empty.
func buildRemediation(category Category, matched *rule) []string {
	var steps []string

	switch category {
	case CategoryEnvironment:
		steps = []string{
			"run environment validation to check required commands and services",
		}
	case CategoryDependency:
		steps = []string{
			"install the missing package with the project's package manager",
			"verify the dependency manifest lists the package",
		}
	case CategoryNetwork:
		steps = []string{
			"check network connectivity to the target host",
			"verify DNS resolution and proxy settings",
			"retry after increasing the timeout if the target is slow",
		}
	case CategorySpec:
		steps = []string{
			"run the self-heal trigger to attempt an automatic correction",
			"compare the implementation against the specification for drift",
		}
	default:
		steps = []string{
			"inspect the full command output for details",
			"re-run the command with verbose logging enabled",
		}
	}

	if matched != nil {
		steps = append(steps, matched.steps...)
	}
	return steps
}

// deriveFollowUp picks the suggested follow-up tool: explicit from the rule
// when set, otherwise derived from the category.
func deriveFollowUp(category Category, matched *rule) FollowUp {
	if matched != nil && matched.followUp != FollowUpNone {
		return matched.followUp
	}
	switch category {
	case CategoryEnvironment, CategoryDependency:
		return FollowUpValidateEnvironment
	case CategorySpec:
		return FollowUpTriggerSelfHeal
	default:
		return FollowUpNone
	}
}
