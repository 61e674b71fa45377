package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
	"github.com/ethereum-optimism/infra/gtest-runner/ui"
)

const (
	RunDirectoryPrefix = "testrun-"
	FailedDirName      = "failed"
	AllLogsFilename    = "all.log"
	SummaryFilename    = "summary.log"

	testLogBoxWidth = 80
)

// FileLogger persists the output of executed tests under
// <baseDir>/testrun-<runID>/. Every result gets an entry in all.log and
// every FAILED, ERROR or HANG test gets its own file in failed/.
// It is safe for concurrent use by all workers of a run.
type FileLogger struct {
	baseDir string
	log     log.Logger

	mu           sync.Mutex
	asyncWriters map[string]*AsyncFile
	failedLogs   map[failedLogKey]string
	claimed      map[string]failedLogKey
}

type failedLogKey struct {
	runID string
	id    types.TestIdentifier
}

// NewFileLogger creates a logger rooted at baseDir
func NewFileLogger(baseDir string, logger log.Logger) (*FileLogger, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}
	if logger == nil {
		logger = log.New()
	}

	return &FileLogger{
		baseDir:      baseDir,
		log:          logger.New("component", "file-logger"),
		asyncWriters: make(map[string]*AsyncFile),
		failedLogs:   make(map[failedLogKey]string),
		claimed:      make(map[string]failedLogKey),
	}, nil
}

// DirectoryForRunID returns the directory holding the logs of runID
func (l *FileLogger) DirectoryForRunID(runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("runID cannot be empty")
	}
	return filepath.Join(l.baseDir, RunDirectoryPrefix+runID), nil
}

// FailedLogPath returns where the output of a non-passing test is written.
// Identifiers whose safe names collide with an earlier test's get a suffix
// derived from the identifier.
func (l *FileLogger) FailedLogPath(runID string, id types.TestIdentifier) (string, error) {
	dir, err := l.DirectoryForRunID(runID)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if path, ok := l.failedLogs[failedLogKey{runID, id}]; ok {
		return path, nil
	}
	return filepath.Join(dir, FailedDirName, safeFilename(string(id))+".log"), nil
}

// claimFailedLog assigns a unique path to a test's log. It returns false when
// the test already has one. Callers hold l.mu.
func (l *FileLogger) claimFailedLog(dir string, key failedLogKey) (string, bool) {
	if _, done := l.failedLogs[key]; done {
		return "", false
	}
	name := safeFilename(string(key.id))
	path := filepath.Join(dir, FailedDirName, name+".log")
	if _, taken := l.claimed[path]; taken {
		name += "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(key.id)).String()[:8]
		path = filepath.Join(dir, FailedDirName, name+".log")
		for i := 2; ; i++ {
			if _, taken := l.claimed[path]; !taken {
				break
			}
			path = filepath.Join(dir, FailedDirName, fmt.Sprintf("%s-%d.log", name, i))
		}
	}
	l.claimed[path] = key
	l.failedLogs[key] = path
	return path, true
}

// Consume records a single test result
func (l *FileLogger) Consume(result *types.TestResult, runID string) error {
	dir, err := l.DirectoryForRunID(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, FailedDirName), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	writer, err := l.getAsyncWriter(filepath.Join(dir, AllLogsFilename))
	if err != nil {
		return err
	}
	if err := writer.Write([]byte(formatAllLogsEntry(result))); err != nil {
		return err
	}

	if !result.Outcome.IsProblem() {
		return nil
	}
	return l.writeFailedLog(result, runID)
}

// writeFailedLog writes the full output of a test, once per test and run
func (l *FileLogger) writeFailedLog(result *types.TestResult, runID string) error {
	dir, err := l.DirectoryForRunID(runID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	path, first := l.claimFailedLog(dir, failedLogKey{runID, result.ID})
	l.mu.Unlock()
	if !first {
		return nil
	}

	writer, err := l.getAsyncWriter(path)
	if err != nil {
		return err
	}
	l.log.Debug("Writing test output", "test", result.ID, "path", path)
	return writer.Write([]byte(formatTestLog(result)))
}

// LogSummary writes the summary text of a run to summary.log
func (l *FileLogger) LogSummary(summary string, runID string) error {
	dir, err := l.DirectoryForRunID(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	writer, err := l.getAsyncWriter(filepath.Join(dir, SummaryFilename))
	if err != nil {
		return err
	}
	return writer.Write([]byte(summary))
}

// Complete flushes and closes every open file
func (l *FileLogger) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for path, writer := range l.asyncWriters {
		if err := writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	l.asyncWriters = make(map[string]*AsyncFile)
	return errors.Join(errs...)
}

func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, exists := l.asyncWriters[path]; exists {
		return writer, nil
	}
	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	l.asyncWriters[path] = writer
	return writer, nil
}

func formatAllLogsEntry(result *types.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-12s %10s  %s\n",
		time.Now().Format(time.RFC3339), result.Outcome.Label(), result.Duration.Round(time.Millisecond), result.Record.Command)
	if result.Error != nil {
		fmt.Fprintf(&b, "  error: %v\n", result.Error)
	}
	return b.String()
}

func formatTestLog(result *types.TestResult) string {
	var b strings.Builder
	b.WriteString(ui.BuildBoxHeader("TEST: "+result.ID.String(), testLogBoxWidth))
	fmt.Fprintf(&b, "COMMAND:  %s\n", result.Record.Command)
	fmt.Fprintf(&b, "RESULT:   %s\n", result.Outcome.Label())
	fmt.Fprintf(&b, "DURATION: %s\n", result.Duration)
	if result.Error != nil {
		fmt.Fprintf(&b, "ERROR:    %v\n", result.Error)
	}

	if result.Stdout != "" {
		if result.StdoutTruncated {
			fmt.Fprintf(&b, "\nSTDOUT (last %d of %d bytes):\n~~~~~~~\n", len(result.Stdout), result.StdoutBytes)
		} else {
			b.WriteString("\nSTDOUT:\n~~~~~~~\n")
		}
		b.WriteString(indentText(stripansi.Strip(result.Stdout), "  "))
		b.WriteString("\n")
	}
	if result.Stderr != "" {
		b.WriteString("\nSTDERR:\n~~~~~~~\n")
		b.WriteString(indentText(stripansi.Strip(result.Stderr), "  "))
		b.WriteString("\n")
	}
	return b.String()
}

// indentText adds indentation to each non-empty line
func indentText(text, indent string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// safeFilename converts a string to a safe filename by replacing problematic characters
func safeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(s)
}
