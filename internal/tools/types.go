// Package tools exposes the engine's capabilities as schema-described
// tools a host agent can discover and invoke: gated command execution, the
// self-healing loop, error analysis, and research lookups.
package tools

import (
	"context"
)

// Category classifies tools for host-side filtering.
type Category string

const (
	// CategoryExecute covers direct, policy-gated command execution.
	CategoryExecute Category = "/execute"

	// CategoryHeal covers the self-correcting execution loop.
	CategoryHeal Category = "/heal"

	// CategoryResearch covers research lookups.
	CategoryResearch Category = "/research"

	// CategoryGeneral is for tools usable in any flow.
	CategoryGeneral Category = "/general"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Schema defines the JSON schema for tool arguments, enabling host-side
// validation and LLM tool calling.
type Schema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one invokable capability.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does.
	Description string

	// Category classifies the tool for filtering.
	Category Category

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema Schema

	// Priority orders tools when multiple match (default 50, higher
	// preferred).
	Priority int
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Result wraps the result of tool execution with metadata.
type Result struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Output is the string output from the tool.
	Output string

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *Result) IsSuccess() bool {
	return r.Error == nil
}
