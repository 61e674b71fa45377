package runner

import (
	"errors"
	"os"
	"path/filepath"
)

// CrashDumpCleaner wipes crash dumps left behind by a test.
//
// The directory is shared by every worker and by any test that is still
// running, so a wipe can race with a dump being written. Cleaning is best
// effort and nothing depends on it succeeding.
type CrashDumpCleaner interface {
	Clean() error
}

type noOpCleaner struct{}

func (noOpCleaner) Clean() error { return nil }

type dirCleaner struct {
	dir string
}

// NewCrashDumpCleaner returns a cleaner that removes the contents of dir.
// An empty dir disables cleaning.
func NewCrashDumpCleaner(dir string) CrashDumpCleaner {
	if dir == "" {
		return noOpCleaner{}
	}
	return &dirCleaner{dir: dir}
}

// Clean removes every entry under the directory but keeps the directory.
// Entries that vanish underneath us were removed by another worker.
func (c *dirCleaner) Clean() error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range entries {
		err := os.RemoveAll(filepath.Join(c.dir, entry.Name()))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
