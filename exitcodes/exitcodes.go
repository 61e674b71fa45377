// Package exitcodes defines the exit codes used by gtest-runner.
package exitcodes

// A run that executed every test exits with Success, whatever the test
// outcomes were; they are reported in the result file. Usage problems also
// exit with Success after printing the usage text.
//
// RuntimeErr is used when the run could not happen at all, e.g. the test
// binary could not be listed or the result file could not be written.
const (
	Success    = 0
	RuntimeErr = 2
)
