package types

import "fmt"

// TestListing is the structured enumeration a GoogleTest binary writes for
// --gtest_list_tests --gtest_output=json:<path>. GoogleTest writes the count
// under "tests"; some wrappers use "total".
type TestListing struct {
	Tests      *int        `json:"tests,omitempty"`
	Total      *int        `json:"total,omitempty"`
	TestSuites []TestSuite `json:"testsuites"`
}

// TestSuite is one named suite in a listing
type TestSuite struct {
	Name  string     `json:"name"`
	Cases []TestCase `json:"testsuite"`
}

// TestCase is one named case within a suite
type TestCase struct {
	Name string `json:"name"`
}

// Validate rejects listings whose advertised counts cannot be right.
func (l *TestListing) Validate() error {
	if l.Tests != nil && *l.Tests < 0 {
		return fmt.Errorf("negative test count %d", *l.Tests)
	}
	if l.Total != nil && *l.Total < 0 {
		return fmt.Errorf("negative test total %d", *l.Total)
	}
	return nil
}

// Listed returns the number of cases actually present in the listing.
func (l *TestListing) Listed() int {
	n := 0
	for _, ts := range l.TestSuites {
		n += len(ts.Cases)
	}
	return n
}

// Count returns the advertised total, falling back to the number of listed
// cases when the listing carries none.
func (l *TestListing) Count() int {
	if l.Tests != nil {
		return *l.Tests
	}
	if l.Total != nil {
		return *l.Total
	}
	return l.Listed()
}

// Identifiers flattens the listing into suite.case identifiers in
// enumeration order.
func (l *TestListing) Identifiers() []TestIdentifier {
	ids := make([]TestIdentifier, 0, l.Listed())
	for _, ts := range l.TestSuites {
		for _, tc := range ts.Cases {
			ids = append(ids, NewTestIdentifier(ts.Name, tc.Name))
		}
	}
	return ids
}
