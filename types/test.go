package types

import (
	"fmt"
	"strings"
	"time"
)

// TestIdentifier is a fully-qualified GoogleTest name of the form "<suite>.<case>".
type TestIdentifier string

// NewTestIdentifier joins a suite and case name into an identifier.
func NewTestIdentifier(suite, name string) TestIdentifier {
	return TestIdentifier(suite + "." + name)
}

// Suite returns the part before the first dot. Parameterized suites such as
// "Prefix/Suite" are returned as-is.
func (id TestIdentifier) Suite() string {
	suite, _, _ := strings.Cut(string(id), ".")
	return suite
}

// Case returns the part after the first dot, or "" when there is none.
func (id TestIdentifier) Case() string {
	_, name, _ := strings.Cut(string(id), ".")
	return name
}

func (id TestIdentifier) String() string {
	return string(id)
}

// OutcomeKind is one of the terminal classifications of a test execution
type OutcomeKind string

const (
	OutcomePassed  OutcomeKind = "PASSED"
	OutcomeFailed  OutcomeKind = "FAILED"
	OutcomeSkipped OutcomeKind = "SKIPPED"
	OutcomeError   OutcomeKind = "ERROR"
	OutcomeHang    OutcomeKind = "HANG"
)

// AllOutcomeKinds lists every kind in summary order.
var AllOutcomeKinds = []OutcomeKind{OutcomePassed, OutcomeSkipped, OutcomeFailed, OutcomeError, OutcomeHang}

// Outcome is the classified result of running one test.
// ExitCode is only meaningful for OutcomeError.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
}

func Passed() Outcome  { return Outcome{Kind: OutcomePassed} }
func Failed() Outcome  { return Outcome{Kind: OutcomeFailed} }
func Skipped() Outcome { return Outcome{Kind: OutcomeSkipped} }
func Hang() Outcome    { return Outcome{Kind: OutcomeHang} }

// Errored builds an ERROR outcome carrying the child's exit code.
func Errored(exitCode int) Outcome {
	return Outcome{Kind: OutcomeError, ExitCode: exitCode}
}

// Label renders the outcome the way it appears in the result file,
// e.g. "PASSED" or "ERROR (134)".
func (o Outcome) Label() string {
	if o.Kind == OutcomeError {
		return fmt.Sprintf("%s (%d)", OutcomeError, o.ExitCode)
	}
	return string(o.Kind)
}

func (o Outcome) String() string {
	return o.Label()
}

// IsProblem reports whether the outcome needs attention, i.e. anything
// other than a pass or a skip.
func (o Outcome) IsProblem() bool {
	return o.Kind != OutcomePassed && o.Kind != OutcomeSkipped
}

// TestResult captures the outcome of a single test run together with the
// data needed for logs and metrics. Only Record is shared with other workers.
type TestResult struct {
	ID       TestIdentifier
	Record   ResultRecord
	Outcome  Outcome
	Duration time.Duration
	Stdout   string // tail of the captured stdout
	Stderr   string
	Error    error // set when the child could not be run at all

	// StdoutBytes is the full size of the child's stdout; StdoutTruncated
	// is set when Stdout only holds its tail.
	StdoutBytes     int64
	StdoutTruncated bool
}
