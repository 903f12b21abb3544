package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Logger: logger,
		Color:  isTerminal(os.Stdout),
	})

	app := &cli.Command{
		Name:     "plx",
		Usage:    "Version control for Spotify & YouTube playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrPushConflict), errors.Is(err, shared.ErrDivergedHistory):
			// Conflict details were already rendered by the action.
			logger.Error(err.Error())
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
