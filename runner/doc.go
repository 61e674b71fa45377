// Package runner executes GoogleTest cases in a structured, organized manner.
//
// The main components are:
//   - TestExecutor: runs one test identifier as a child process with a timeout
//   - Classifier: maps captured stdout onto an outcome with an ordered marker table
//   - ResultCollector: merges results from all workers into a deduplicated set and counters
//   - ParallelExecutor: fans identifiers out across a bounded pool of workers
//   - TestCoordinator: owns one run end to end and returns its RunnerResult
//
// Only the ResultCollector is shared between workers; every executor call owns
// its own child process until it publishes.
package runner
