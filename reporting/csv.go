package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

const (
	// TimestampLayout is appended to the mode name to form the result file name
	TimestampLayout = "20060102_150405"

	csvExtension = ".csv"
)

// CSVHeader is the first row of every result file
var CSVHeader = []string{"VTS/CTS Command", "Result"}

// OutputFilename returns the result file name for a run of mode started at start,
// e.g. "cts_20240131_174501.csv".
func OutputFilename(mode string, start time.Time) string {
	return mode + "_" + start.Format(TimestampLayout) + csvExtension
}

// WriteCSV writes the header followed by one row per record, in the order
// given, to dir/OutputFilename(mode, start) and returns the path written.
func WriteCSV(dir, mode string, start time.Time, records []types.ResultRecord) (string, error) {
	if mode == "" {
		return "", fmt.Errorf("mode cannot be empty")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, OutputFilename(mode, start))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(record.Row()); err != nil {
			return "", fmt.Errorf("failed to write record %q: %w", record.Command, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush result file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync result file: %w", err)
	}
	return path, nil
}

// ReadCSV loads the records of a result file written by WriteCSV
func ReadCSV(path string) ([]types.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	records := make([]types.ResultRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, types.ResultRecord{Command: row[0], Result: row[1]})
	}
	return records, nil
}
