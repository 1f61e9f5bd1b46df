package mycel

import (
	_ "embed"
)

// Version is the release version of the module, read from VERSION.
//
//go:embed VERSION
var Version string
