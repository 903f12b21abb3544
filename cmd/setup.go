package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when missing and
// initializes the track cache database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config file created at %s\n", configPath)
		r.writePlain("  Fill in provider credentials before running 'plx auth'\n")
	}

	config := r.loadConfig(cmd)

	root, err := config.RootDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create state root: %w", err)
	}

	r.logger.Info("initializing track cache", "path", config.Storage.CachePath)

	db, err := r.openCache(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlain("✓ State root ready at %s\n", root)
	r.writePlain("✓ Track cache migrated (%s)\n", config.Storage.CachePath)
	return nil
}
