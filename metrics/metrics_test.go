package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
	RecordErrorDetails("test", nil)
	RecordErrorDetails("test", errors.New("sample error"))
}

func TestRecordTest(t *testing.T) {
	before := testutil.ToFloat64(outcomesTotal.WithLabelValues("metrics_suite", "HANG"))

	RecordTest("metrics_suite", types.OutcomeHang, 10*time.Second)
	RecordTest("metrics_suite", types.OutcomeHang, 10*time.Second)
	RecordTest("metrics_suite", types.OutcomeKind("bogus"), time.Second)

	assert.Equal(t, before+2, testutil.ToFloat64(outcomesTotal.WithLabelValues("metrics_suite", "HANG")))
}

func TestRecordRun(t *testing.T) {
	counters := types.RunCounters{Passed: 5, Failed: 1, Hung: 2}
	RecordRun("metrics_suite", "run1", counters, 3*time.Second)

	assert.Equal(t, 5.0, testutil.ToFloat64(runTests.WithLabelValues("metrics_suite", "run1", "PASSED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(runTests.WithLabelValues("metrics_suite", "run1", "HANG")))
	assert.Equal(t, 0.0, testutil.ToFloat64(runTests.WithLabelValues("metrics_suite", "run1", "SKIPPED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(runDuration.WithLabelValues("metrics_suite", "run1")))
}
