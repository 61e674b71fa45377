package types

// ResultRecord is one row of the result file. Records are compared by value,
// so two runs of the same command with the same outcome are the same record.
type ResultRecord struct {
	Command string
	Result  string
}

// NewResultRecord pairs a command line with its outcome label.
func NewResultRecord(command string, outcome Outcome) ResultRecord {
	return ResultRecord{Command: command, Result: outcome.Label()}
}

// Row returns the record as CSV fields
func (r ResultRecord) Row() []string {
	return []string{r.Command, r.Result}
}

// RunCounters tracks per-outcome totals for a single run.
// Completed counts every executed test, Total is the count advertised at
// discovery time.
type RunCounters struct {
	Passed    int
	Failed    int
	Skipped   int
	Errored   int
	Hung      int
	Completed int
	Total     int
}

// Inc bumps the counter for the given kind.
func (c *RunCounters) Inc(kind OutcomeKind) {
	switch kind {
	case OutcomePassed:
		c.Passed++
	case OutcomeFailed:
		c.Failed++
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeError:
		c.Errored++
	case OutcomeHang:
		c.Hung++
	}
}

// Get returns the counter for the given kind.
func (c RunCounters) Get(kind OutcomeKind) int {
	switch kind {
	case OutcomePassed:
		return c.Passed
	case OutcomeFailed:
		return c.Failed
	case OutcomeSkipped:
		return c.Skipped
	case OutcomeError:
		return c.Errored
	case OutcomeHang:
		return c.Hung
	}
	return 0
}

// Classified is the sum of the five outcome counters.
func (c RunCounters) Classified() int {
	return c.Passed + c.Failed + c.Skipped + c.Errored + c.Hung
}
