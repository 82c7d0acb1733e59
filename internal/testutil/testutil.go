// Package testutil holds fixtures shared by package tests: loggers, project
// trees on disk and stand-ins for the node toolchain.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger creates a test logger that writes through t.Log
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
}

// WriteFiles writes files, keyed by slash-separated path relative to root,
// creating parent directories as needed
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// WriteScript writes an executable shell script to path. Tests that need
// one are skipped on Windows.
func WriteScript(t *testing.T, path, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("Failed to write script %s: %v", path, err)
	}
}

// SetModTime sets both the access and modification time of path
func SetModTime(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("Failed to set mtime of %s: %v", path, err)
	}
}

// FakeAsc installs a stand-in asc under libs that writes "wasm" to its
// --outFile and appends its arguments to <libs>/asc.log. Sources whose path
// contains "broken" make it fail with a message on stderr.
func FakeAsc(t *testing.T, libs string) {
	t.Helper()
	WriteScript(t, filepath.Join(libs, "assemblyscript", "bin", "asc"), `
echo "$@" >> "$(dirname "$0")/../../asc.log"
case "$1" in
  *broken*) echo "ERROR TS1005: ';' expected. in $1" >&2; exit 1 ;;
esac
while [ $# -gt 0 ]; do
  if [ "$1" = "--outFile" ]; then out="$2"; fi
  shift
done
printf 'wasm' > "$out"
`)
}

// FakeWasm2Wat installs a stand-in wasm2wat under libs that copies its input
// to the -o destination
func FakeWasm2Wat(t *testing.T, libs string) {
	t.Helper()
	WriteScript(t, filepath.Join(libs, "wabt", "bin", "wasm2wat"), `
cp "$1" "$3"
`)
}
