// Package testlist discovers the test cases exposed by a GoogleTest binary.
package testlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

const (
	ListTestsFlag    = "--gtest_list_tests"
	OutputFlagPrefix = "--gtest_output=json:"

	// DefaultSettleTimeout bounds how long we wait for the enumeration file
	// to show up after the binary returns.
	DefaultSettleTimeout = 5 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
)

// ErrListingNotFound is wrapped by DiscoveryError when the enumeration file
// never appeared.
var ErrListingNotFound = errors.New("test listing file not found")

// DiscoveryError is fatal to a run: without a listing there is nothing to execute.
type DiscoveryError struct {
	Binary string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering tests of %s: %v", e.Binary, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// IsDiscoveryError checks if the error is or wraps a DiscoveryError
func IsDiscoveryError(err error) bool {
	var discErr *DiscoveryError
	return err != nil && errors.As(err, &discErr)
}

// Listing is the flattened result of a discovery
type Listing struct {
	Binary string
	Tests  []types.TestIdentifier
	Total  int
}

// Config holds discoverer settings. Zero values select the defaults; a
// negative PollInterval disables polling and waits the full SettleTimeout.
type Config struct {
	Log           log.Logger
	TempDir       string
	SettleTimeout time.Duration
	PollInterval  time.Duration
}

// Discoverer runs a binary in list mode and parses its JSON enumeration.
type Discoverer struct {
	log           log.Logger
	tempDir       string
	settleTimeout time.Duration
	pollInterval  time.Duration
}

// NewDiscoverer creates a new discoverer
func NewDiscoverer(cfg Config) *Discoverer {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultSettleTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Discoverer{
		log:           cfg.Log.New("component", "discoverer"),
		tempDir:       cfg.TempDir,
		settleTimeout: cfg.SettleTimeout,
		pollInterval:  cfg.PollInterval,
	}
}

// ListingPath returns a fresh enumeration path for the binary
func (d *Discoverer) ListingPath(binary string) string {
	name := fmt.Sprintf("%s-%s.json", filepath.Base(binary), uuid.New().String())
	return filepath.Join(d.tempDir, name)
}

// Discover enumerates the tests of binary.
func (d *Discoverer) Discover(ctx context.Context, binary string) (*Listing, error) {
	if binary == "" {
		return nil, &DiscoveryError{Binary: binary, Err: errors.New("binary cannot be empty")}
	}

	path := d.ListingPath(binary)
	args := []string{ListTestsFlag, OutputFlagPrefix + path}
	d.log.Debug("Listing tests", "binary", binary, "args", args)

	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &DiscoveryError{Binary: binary, Err: fmt.Errorf("failed to run list command: %w", err)}
		}
		// Some builds exit non-zero after listing; the file decides.
		d.log.Warn("List command exited with error", "binary", binary, "exitCode", exitErr.ExitCode(), "output", string(out))
	}

	if err := d.waitForListing(ctx, path); err != nil {
		return nil, &DiscoveryError{Binary: binary, Err: err}
	}
	defer d.removeListing(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DiscoveryError{Binary: binary, Err: fmt.Errorf("failed to read test listing: %w", err)}
	}
	listing, err := ParseListing(data)
	if err != nil {
		return nil, &DiscoveryError{Binary: binary, Err: err}
	}

	result := &Listing{
		Binary: binary,
		Tests:  listing.Identifiers(),
		Total:  listing.Count(),
	}
	if result.Total != len(result.Tests) {
		d.log.Warn("Advertised test count differs from listed tests", "total", result.Total, "listed", len(result.Tests))
	}
	d.log.Info("Discovered tests", "binary", binary, "total", result.Total, "suites", len(listing.TestSuites))
	return result, nil
}

// ParseListing decodes a GoogleTest JSON enumeration.
func ParseListing(data []byte) (*types.TestListing, error) {
	var listing types.TestListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse test listing: %w", err)
	}
	if err := listing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid test listing: %w", err)
	}
	return &listing, nil
}

// waitForListing waits until path exists and its size and mtime held still
// across two consecutive polls. The binary is expected to have written the
// file by the time it exits, but that is not guaranteed on every platform.
func (d *Discoverer) waitForListing(ctx context.Context, path string) error {
	if d.pollInterval < 0 {
		if err := sleepCtx(ctx, d.settleTimeout); err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrListingNotFound, path)
		}
		return nil
	}

	deadline := time.Now().Add(d.settleTimeout)
	var prev os.FileInfo
	for {
		info, err := os.Stat(path)
		if err == nil && info.Size() > 0 {
			if prev != nil && prev.Size() == info.Size() && prev.ModTime().Equal(info.ModTime()) {
				return nil
			}
			prev = info
		}

		if time.Now().After(deadline) {
			if prev != nil {
				d.log.Warn("Test listing still changing after settle timeout, reading anyway", "path", path)
				return nil
			}
			return fmt.Errorf("%w after %v: %s", ErrListingNotFound, d.settleTimeout, path)
		}
		if err := sleepCtx(ctx, d.pollInterval); err != nil {
			return err
		}
	}
}

func (d *Discoverer) removeListing(path string) {
	err := os.Remove(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		d.log.Warn("Could not remove test listing, the file does not exist", "path", path)
	case err != nil:
		d.log.Warn("Could not remove test listing", "path", path, "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
