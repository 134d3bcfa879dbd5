// Package ledger persists the single piece of launcher state: the version
// marker recording which serve-d release the working directory holds.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// MarkerFile is the name of the version marker inside the working directory.
const MarkerFile = "version.txt"

// Baseline is the version assumed when no marker has ever been written.
const Baseline = "0.0.0"

// ErrMalformed indicates the marker file holds something that is not a
// semantic version. Malformed local state is not auto-repaired.
var ErrMalformed = errors.New("malformed version marker")

// Ledger owns the marker file inside one working directory. It is the only
// writer; a single bootstrap cycle per process is assumed.
type Ledger struct {
	dir  string
	path string
}

// New creates a Ledger rooted at dir.
func New(dir string) *Ledger {
	return &Ledger{
		dir:  dir,
		path: filepath.Join(dir, MarkerFile),
	}
}

// Read reports the recorded version and whether the working directory had
// to be created. A missing directory is created here and yields the
// baseline version with fresh=true. An existing directory without a marker
// yields the baseline with fresh=false. A marker that does not parse as a
// semantic version is a fatal error.
func (l *Ledger) Read() (version string, fresh bool, err error) {
	if _, statErr := os.Stat(l.dir); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return "", false, fmt.Errorf("ledger: stat working directory: %w", statErr)
		}
		if mkErr := os.MkdirAll(l.dir, 0o755); mkErr != nil {
			return "", false, fmt.Errorf("ledger: create working directory: %w", mkErr)
		}
		return Baseline, true, nil
	}

	data, readErr := os.ReadFile(l.path)
	if readErr != nil {
		if errors.Is(readErr, os.ErrNotExist) {
			return Baseline, false, nil
		}
		return "", false, fmt.Errorf("ledger: read marker: %w", readErr)
	}

	version = strings.TrimSpace(string(data))
	if !semver.IsValid(Canonical(version)) {
		return "", false, fmt.Errorf("%w: %q", ErrMalformed, version)
	}
	return version, false, nil
}

// Write records tag verbatim as the most recently observed remote version.
// This runs once per bootstrap cycle whether or not an install happened,
// so the marker tracks the observed tag, not necessarily the installed one.
func (l *Ledger) Write(tag string) error {
	if err := os.WriteFile(l.path, []byte(tag), 0o644); err != nil {
		return fmt.Errorf("ledger: write marker: %w", err)
	}
	return nil
}

// Canonical normalizes a release tag for semver comparison by ensuring the
// "v" prefix the semver package requires. Tags are stored and used in URLs
// verbatim; only comparisons go through this.
func Canonical(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}
