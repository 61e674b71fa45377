package runner

import (
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// MarkerRule maps a status marker printed by gtest onto an outcome kind
type MarkerRule struct {
	Marker string
	Kind   types.OutcomeKind
}

// DefaultRules is evaluated top to bottom and the first marker found wins:
// SKIPPED beats FAILED beats PASSED. gtest pads FAILED to the width of the
// other markers, so both spellings are accepted.
var DefaultRules = []MarkerRule{
	{Marker: "[  SKIPPED ]", Kind: types.OutcomeSkipped},
	{Marker: "[  FAILED ]", Kind: types.OutcomeFailed},
	{Marker: "[  FAILED  ]", Kind: types.OutcomeFailed},
	{Marker: "[  PASSED  ]", Kind: types.OutcomePassed},
}

// Classifier turns the stdout of a finished test into an outcome
type Classifier struct {
	rules []MarkerRule
}

// NewClassifier creates a classifier for the given rules; nil selects DefaultRules
func NewClassifier(rules []MarkerRule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the outcome of the first matching rule, or an ERROR
// carrying exitCode when no marker is present.
func (c *Classifier) Classify(stdout string, exitCode int) types.Outcome {
	clean := stripansi.Strip(stdout)
	for _, rule := range c.rules {
		if strings.Contains(clean, rule.Marker) {
			return types.Outcome{Kind: rule.Kind}
		}
	}
	return types.Errored(exitCode)
}
