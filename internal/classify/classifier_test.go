package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_CommandNotFound(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("bash: tsc: command not found")
	assert.Equal(t, CategoryEnvironment, a.Category)
	assert.Contains(t, a.RootCause, "tsc")
	assert.Equal(t, FollowUpValidateEnvironment, a.SuggestedFollowUp)
	assert.NotEmpty(t, a.Remediation)
}

func TestAnalyze_NodeModuleMissing(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("Error: Cannot find module 'lodash'\n    at Function.Module._resolveFilename")
	assert.Equal(t, CategoryDependency, a.Category)
	assert.Contains(t, a.RootCause, "lodash")

	installMentioned := false
	for _, step := range a.Remediation {
		if strings.Contains(step, "install") {
			installMentioned = true
		}
	}
	assert.True(t, installMentioned, "dependency remediation should include an install step")
}

func TestAnalyze_PythonModuleMissing(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("ModuleNotFoundError: No module named 'requests'")
	assert.Equal(t, CategoryDependency, a.Category)
	assert.Contains(t, a.RootCause, "requests")
}

func TestAnalyze_NetworkErrors(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		stderr string
		rule   string
	}{
		{"Error: connect ECONNREFUSED 127.0.0.1:5432", "connection-refused"},
		{"getaddrinfo ENOTFOUND api.internal.example", "dns-failure"},
		{"Error: ETIMEDOUT connecting to upstream", "network-timeout"},
	}
	for _, tc := range cases {
		a := c.Analyze(tc.stderr)
		assert.Equal(t, CategoryNetwork, a.Category, "stderr: %s", tc.stderr)
		assert.Equal(t, tc.rule, a.MatchedRule)
		assert.Equal(t, FollowUpNone, a.SuggestedFollowUp)
	}
}

func TestAnalyze_SpecErrors(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("SyntaxError: Unexpected token ')'")
	assert.Equal(t, CategorySpec, a.Category)
	assert.Equal(t, FollowUpTriggerSelfHeal, a.SuggestedFollowUp)

	a = c.Analyze("ReferenceError: config is not defined")
	assert.Equal(t, CategorySpec, a.Category)
	assert.Contains(t, a.RootCause, "config")
}

func TestAnalyze_PortInUse(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("Error: listen EADDRINUSE: address already in use :::8080")
	assert.Equal(t, CategoryEnvironment, a.Category)
	assert.Contains(t, a.RootCause, "8080")
	assert.Equal(t, FollowUpValidateEnvironment, a.SuggestedFollowUp)
}

func TestAnalyze_Totality(t *testing.T) {
	c := NewClassifier()

	// Every input, including the empty string, yields a complete analysis.
	inputs := []string{
		"",
		"   \n\n  ",
		"some completely novel failure mode 0x7f",
		strings.Repeat("x", 5000),
	}
	for _, in := range inputs {
		a := c.Analyze(in)
		require.NotEmpty(t, a.Remediation, "input %q", in)
		assert.Equal(t, CategoryUnknown, a.Category, "input %q", in)
		assert.NotEmpty(t, a.RootCause, "input %q", in)
	}
}

func TestAnalyze_GenericCauseIsBounded(t *testing.T) {
	c := NewClassifier()

	long := strings.Repeat("a", 500)
	a := c.Analyze(long)
	assert.True(t, strings.HasSuffix(a.RootCause, "..."))
	assert.LessOrEqual(t, len(a.RootCause), maxGenericCauseLen+len("Unclassified error: ")+3)
}

func TestAnalyze_FirstLineOnlyInGenericCause(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("first mystery line\nsecond line detail")
	assert.Contains(t, a.RootCause, "first mystery line")
	assert.NotContains(t, a.RootCause, "second line")
}

func TestAnalyze_OrderingContract(t *testing.T) {
	c := NewClassifier()

	// "Cannot find module" also contains "not found"-ish text; the module
	// rule must win over broader environment rules because it is listed
	// first among matching entries.
	a := c.Analyze("Error: Cannot find module 'express'")
	assert.Equal(t, "node-module-missing", a.MatchedRule)

	// A timeout message mentioning a host must classify as timeout, not
	// DNS, because both could plausibly match.
	a = c.Analyze("request to https://registry.example timed out")
	assert.Equal(t, CategoryNetwork, a.Category)
}

func TestAnalyze_UnknownRemediationIsGeneric(t *testing.T) {
	c := NewClassifier()

	a := c.Analyze("zorp error 742")
	require.NotEmpty(t, a.Remediation)
	assert.Contains(t, a.Remediation[0], "inspect")
}
