package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// SandboxDir is the directory, under the system temp dir, that dev runs write to.
const SandboxDir = "noteledger-dev"

// IsDevRun reports whether the process was started by `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveLedgerPath returns where the ledger actually lives. Without
// forceTemp it is userPath (DefaultLedgerName when empty). With forceTemp a
// path outside the system temp dir is re-rooted into SandboxDir, keeping
// only its base name.
func ResolveLedgerPath(userPath string, forceTemp bool) string {
	if userPath == "" {
		userPath = DefaultLedgerName
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if abs, err := filepath.Abs(clean); err == nil {
		// Already inside temp (t.TempDir() and friends): trust it.
		if rel, err := filepath.Rel(os.TempDir(), abs); err == nil && !strings.HasPrefix(rel, "..") {
			return clean
		}
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) {
		name = DefaultLedgerName
	}
	return filepath.Join(os.TempDir(), SandboxDir, name)
}
