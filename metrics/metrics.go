package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

const (
	MetricsNamespace = "gtest"
)

var (
	Debug                bool = false
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "outcomes_total",
		Help:      "Count of executed tests by outcome",
	}, []string{
		"suite",
		"outcome",
	})

	testDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "test_duration_seconds",
		Help:      "Wall clock duration of single test executions",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"suite",
		"outcome",
	})

	runTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests",
		Help:      "Number of tests per outcome in a run",
	}, []string{
		"suite",
		"run_id",
		"outcome",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a full run",
	}, []string{
		"suite",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordTest counts one executed test
func RecordTest(suite string, outcome types.OutcomeKind, duration time.Duration) {
	if !isValidOutcome(outcome) {
		log.Error("RecordTest - invalid outcome", "outcome", outcome)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "outcomes_total",
			"suite", suite,
			"outcome", outcome)
	}
	outcomesTotal.WithLabelValues(suite, string(outcome)).Inc()
	testDuration.WithLabelValues(suite, string(outcome)).Observe(duration.Seconds())
}

// RecordRun publishes the final counters of a run
func RecordRun(suite string, runID string, counters types.RunCounters, duration time.Duration) {
	for _, kind := range types.AllOutcomeKinds {
		runTests.WithLabelValues(suite, runID, string(kind)).Set(float64(counters.Get(kind)))
	}
	runDuration.WithLabelValues(suite, runID).Set(duration.Seconds())
}

func isValidOutcome(outcome types.OutcomeKind) bool {
	return slices.Contains(types.AllOutcomeKinds, outcome)
}
