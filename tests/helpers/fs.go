package helpers

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

// ListDir returns the sorted names of the entries inside the directory
// given. A missing directory yields an empty slice.
func ListDir(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}
	}
	assert.NilError(t, err, "failed to read directory %s", dir)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	sort.Strings(names)
	return names
}

// AssertDirContainsExactly asserts that the directory contains exactly the files
// named, and that none of them are empty.
func AssertDirContainsExactly(t *testing.T, dir string, files []string) {
	expected := append([]string(nil), files...)
	sort.Strings(expected)
	assert.DeepEqual(t, expected, ListDir(t, dir))

	for _, name := range files {
		info, err := os.Stat(filepath.Join(dir, name))
		assert.NilError(t, err)
		assert.Assert(t, info.Size() > 0, "expected %s to be non-empty", name)
	}
}

// AssertFileContent asserts the file at the path given exists, and that
// its content matches the bytes provided exactly.
func AssertFileContent(t *testing.T, path string, expected []byte) {
	content, err := os.ReadFile(path)
	assert.NilError(t, err, "failed to read %s", path)
	assert.Assert(t, is.DeepEqual(expected, content), "content of %s did not match", path)
}
