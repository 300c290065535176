// Package testutil holds golden-file helpers shared by package tests.
// Run `go test ./... -update` to rewrite the files under testdata/.
package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var Update = flag.Bool(
	"update",
	false,
	"update golden files",
)

//
// --- Golden file helpers ---
//

func goldenPath(name string) string {
	return filepath.Join("testdata", name+".golden")
}

func writeGolden(t *testing.T, name string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll("testdata", 0755), "failed to create testdata")
	require.NoError(t, os.WriteFile(goldenPath(name), b, 0644), "failed to write golden file")
}

func loadGolden(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(goldenPath(name))
	require.NoError(t, err, "failed to read golden file")
	return b
}

// CompareWithGolden compares the indented JSON encoding of v with
// testdata/<name>.golden.
func CompareWithGolden(t *testing.T, name string, v any) {
	t.Helper()

	actual, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err, "failed to marshal actual JSON")
	CompareBytesWithGolden(t, name, actual)
}

// CompareBytesWithGolden compares raw output, e.g. a rendered CSV file.
func CompareBytesWithGolden(t *testing.T, name string, actual []byte) {
	t.Helper()

	if *Update {
		writeGolden(t, name, actual)
		return
	}

	expected := loadGolden(t, name)

	require.Equal(t,
		string(bytes.TrimRight(expected, "\n")),
		string(bytes.TrimRight(actual, "\n")),
		"golden mismatch for %s", name)
}
