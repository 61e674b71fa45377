package harness

import (
	"path/filepath"

	"github.com/ethereum-optimism/infra/gtest-runner/metrics"
	"github.com/ethereum-optimism/infra/gtest-runner/runner"
)

// MetricsReporter is responsible for reporting metrics from test results.
type MetricsReporter interface {
	ReportResults(result *runner.RunnerResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults publishes the final counters of a run, labelled by binary name.
func (r *DefaultMetricsReporter) ReportResults(result *runner.RunnerResult) {
	metrics.RecordRun(filepath.Base(result.Binary), result.RunID, result.Counters, result.Duration)
}
