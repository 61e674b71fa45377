package runner

import (
	"sync"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// ResultSet is a concurrency-safe set of result records that remembers
// insertion order. Records are keyed by their full value, so a command that
// shows up twice with the same outcome collapses into one row.
type ResultSet struct {
	mu      sync.Mutex
	seen    map[types.ResultRecord]struct{}
	records []types.ResultRecord
}

// NewResultSet creates an empty set
func NewResultSet() *ResultSet {
	return &ResultSet{
		seen: make(map[types.ResultRecord]struct{}),
	}
}

// Add inserts the record and reports whether it was new
func (s *ResultSet) Add(record types.ResultRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[record]; exists {
		return false
	}
	s.seen[record] = struct{}{}
	s.records = append(s.records, record)
	return true
}

// Contains reports whether the record is in the set
func (s *ResultSet) Contains(record types.ResultRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[record]
	return ok
}

// Len returns the number of distinct records
func (s *ResultSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the records in insertion order
func (s *ResultSet) Records() []types.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.ResultRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Publication describes what a single Publish did
type Publication struct {
	Added     bool // false when the record collapsed into an existing one
	Completed int  // completed count including this test
	Milestone bool // this completion is a progress milestone
}

// ResultCollector owns the shared state of one run: the result set and the
// counters. Each publication updates both in a single critical section.
type ResultCollector struct {
	mu            sync.Mutex
	set           *ResultSet
	counters      types.RunCounters
	duplicates    int
	progressEvery int
}

// NewResultCollector creates a collector for a run expecting total tests.
// progressEvery <= 0 disables milestones.
func NewResultCollector(total int, progressEvery int) *ResultCollector {
	return &ResultCollector{
		set:           NewResultSet(),
		counters:      types.RunCounters{Total: total},
		progressEvery: progressEvery,
	}
}

// Publish records the result of one executed test. The outcome counter only
// moves when the record is new, which keeps the counters equal to the size
// of the result set. Completed moves for every call.
func (c *ResultCollector) Publish(result *types.TestResult) Publication {
	c.mu.Lock()
	defer c.mu.Unlock()

	pub := Publication{Added: c.set.Add(result.Record)}
	if pub.Added {
		c.counters.Inc(result.Outcome.Kind)
	} else {
		c.duplicates++
	}

	c.counters.Completed++
	pub.Completed = c.counters.Completed
	pub.Milestone = c.progressEvery > 0 && pub.Completed%c.progressEvery == 0
	return pub
}

// Counters returns a snapshot of the counters
func (c *ResultCollector) Counters() types.RunCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

// Duplicates returns how many publications collapsed into an existing record
func (c *ResultCollector) Duplicates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duplicates
}

// Records returns the distinct records in publication order
func (c *ResultCollector) Records() []types.ResultRecord {
	return c.set.Records()
}
