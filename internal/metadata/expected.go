// Package metadata locates expectation tables on disk and orchestrates
// folding observed runs into them.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/syntax"
)

// ExpectedPath returns the table path for a test file: the test's relative
// path under the metadata root, with ".ini" appended.
func ExpectedPath(metadataRoot, testPath string) string {
	return filepath.Join(metadataRoot, filepath.FromSlash(testPath)+".ini")
}

// TestPath derives the test file path from a test URL: the URL with its
// leading slash, query, and fragment stripped.
func TestPath(testURL string) string {
	p := strings.TrimPrefix(testURL, "/")
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p
}

// Load opens and parses the table for a test file. A missing table is not
// an error: it returns (nil, nil) and the caller starts a fresh one. A
// table that exists but does not parse is fatal; corrupt tables are
// surfaced, never silently recovered.
func Load(metadataRoot, testPath string) (*manifest.ExpectedManifest, error) {
	path := ExpectedPath(metadataRoot, testPath)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	root, err := syntax.Parse(f, path)
	if err != nil {
		return nil, err
	}
	return manifest.Bind(root, testPath)
}

// DefaultExpected is the harness's type-implied default status: what a
// test or subtest is expected to do when the table stores no override.
func DefaultExpected(testType string, subtest bool) string {
	if testType == manifest.TestTypeTestharness && !subtest {
		return "OK"
	}
	return "PASS"
}
