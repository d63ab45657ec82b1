package noteledger

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the library version, read from the VERSION file.
var Version = strings.TrimSpace(version)
