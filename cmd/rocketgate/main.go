// Package main provides the entry point for the rocketgate CLI.
package main

import (
	"context"
	"os"

	"github.com/nmfs-opensci/rocketgate/internal/cli"
	"github.com/nmfs-opensci/rocketgate/internal/signal"
)

// Build information, set at build time via ldflags.
var (
	version = "dev"     //nolint:gochecknoglobals // Set via ldflags
	commit  = "none"    //nolint:gochecknoglobals // Set via ldflags
	date    = "unknown" //nolint:gochecknoglobals // Set via ldflags
)

func main() {
	handler := signal.NewHandler(context.Background())

	err := cli.Execute(handler.Context(), cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	// os.Exit skips deferred calls, so release resources explicitly.
	handler.Stop()
	cli.CloseLogFile()

	os.Exit(cli.ExitCodeForError(err))
}
