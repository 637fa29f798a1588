// Package classify maps raw command error text to a fixed taxonomy of error
// categories with root-cause descriptions and remediation steps. The
// classifier is a pure function over the error string: deterministic,
// side-effect free, and total (every input, including the empty string,
// produces an analysis).
package classify

// Category is the error taxonomy.
type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryDependency  Category = "dependency"
	CategoryNetwork     Category = "network"
	CategorySpec        Category = "spec"
	CategoryUnknown     Category = "unknown"
)

// FollowUp names the next tool the host should invoke after this analysis.
type FollowUp string

const (
	FollowUpNone                FollowUp = ""
	FollowUpValidateEnvironment FollowUp = "validate-environment"
	FollowUpTriggerSelfHeal     FollowUp = "trigger-self-heal"
)

// Analysis is the structured output of error classification.
type Analysis struct {
	// OriginalError is the raw error text that was analyzed.
	OriginalError string `json:"original_error"`

	// Category is the taxonomy bucket the error fell into.
	Category Category `json:"category"`

	// RootCause describes what went wrong, including any detail extracted
	// from the error text (command name, module name, port).
	RootCause string `json:"root_cause"`

	// Remediation is an ordered list of suggested steps. Never empty.
	Remediation []string `json:"remediation"`

	// SuggestedFollowUp names the next tool to invoke, if any.
	SuggestedFollowUp FollowUp `json:"suggested_follow_up,omitempty"`

	// MatchedRule names the classification rule that fired, empty when the
	// generic fallback produced the analysis.
	MatchedRule string `json:"matched_rule,omitempty"`
}
