package runner

import "time"

// Test execution constants
const (
	// DefaultTestTimeout is how long a single test may run before it is killed
	// and reported as a hang
	DefaultTestTimeout = 10 * time.Second

	// killGracePeriod bounds how long Wait blocks on pipes held open by
	// grandchildren after the test process itself is gone
	killGracePeriod = 2 * time.Second

	// FilterFlagPrefix selects exactly one test in a gtest binary
	FilterFlagPrefix = "--gtest_filter="

	// DefaultOversubscription is added on top of NumCPU-1 workers since most
	// of a worker's time is spent waiting on its child
	DefaultOversubscription = 2

	// HighConcurrencyWarning is the user-requested concurrency above which we warn
	HighConcurrencyWarning = 128

	// DefaultProgressEvery is the completion interval between progress lines
	DefaultProgressEvery = 1000

	// DefaultCrashDumpDir is where crash_reporter drops dumps on ChromeOS
	DefaultCrashDumpDir = "/var/spool/crash"

	// unknownExitCode is reported when the child never produced an exit status
	unknownExitCode = -1
)
