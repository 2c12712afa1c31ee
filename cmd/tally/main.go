package main

import (
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/logging"
)

//go:embed VERSION
var versionFile string

//go:embed assets/tracker.js
var trackerScript []byte

var executeCLI = cli.Execute

func run() error {
	version := strings.TrimSpace(versionFile)
	return executeCLI(version, trackerScript)
}

func main() {
	if err := run(); err != nil {
		logging.Fatal("tally execution failed", zap.Error(err))
	}
}
