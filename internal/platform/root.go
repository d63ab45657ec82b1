package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLedgerName is the ledger created when no path is given.
const DefaultLedgerName = "notes.yaml"

// LedgerNames are the file names FindLedger looks for, in order of preference.
var LedgerNames = []string{
	"notes.yaml",
	"notes.yml",
	"notes.json",
	"notes.csv",
	"notes.db",
	"notes.xlsx",
}

// FindLedger looks upwards from startDir for a directory holding one of
// LedgerNames and returns the absolute path to that file.
func FindLedger(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range LedgerNames {
			if hasFile(dir, name) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no ledger found from %s", abs)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
