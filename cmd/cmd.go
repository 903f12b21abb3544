// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "playlist",
		Aliases: []string{"p"},
		Usage:   "Playlist ID (optional when only one playlist is tracked)",
	}
}

// setupCommand initializes configuration and the track cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config file and initialize the track cache database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles OAuth authentication per provider.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a provider using OAuth2",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "provider"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show stored credential state instead of authenticating",
			},
			&cli.BoolFlag{
				Name:  "logout",
				Usage: "Delete stored credentials",
			},
		},
		Action: r.Auth,
	}
}

// initCommand starts tracking a playlist.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Start tracking a playlist, recording its current state as the root commit",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "provider"},
			&cli.StringArg{Name: "playlist"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Init,
	}
}

// searchCommand searches a provider or the local cache for tracks.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search a provider for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Provider to search (spotify or youtube)",
				Value: "spotify",
			},
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Search the local track cache instead of the provider",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// addCommand stages a track addition.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Stage a track for addition",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "track"},
		},
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.IntFlag{
				Name:  "at",
				Usage: "Insert position (0-based); omit to append",
				Value: -1,
			},
		},
		Action: r.Add,
	}
}

// removeCommand stages a track removal.
func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Stage a track for removal",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "track"},
		},
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Remove,
	}
}

// moveCommand stages a track reposition.
func moveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "move",
		Usage: "Stage a track move to a new position",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "track"},
			&cli.IntArg{Name: "index"},
		},
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Move,
	}
}

// resetCommand discards staged changes.
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Discard all staged changes",
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Reset,
	}
}

// statusCommand shows HEAD, sync state and the staging area.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show HEAD, sync state and staged changes",
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Status,
	}
}

// commitCommand records staged changes as a new commit.
func commitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "Record staged changes as a new commit",
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.StringFlag{
				Name:     "message",
				Aliases:  []string{"m"},
				Usage:    "Commit message",
				Required: true,
			},
		},
		Action: r.Commit,
	}
}

// logCommand shows commit history.
func logCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Show commit history, newest first",
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of commits to show",
			},
		},
		Action: r.Log,
	}
}

// showCommand lists the tracks of HEAD or an earlier commit.
func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "List the playlist tracks at HEAD or at a given commit",
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.StringFlag{
				Name:  "commit",
				Usage: "Commit hash or unique prefix (default HEAD)",
			},
		},
		Action: r.Show,
	}
}

// diffCommand computes edit scripts against the staged state or the remote.
func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Show the edit script for staged changes, or against the live remote",
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.BoolFlag{
				Name:  "staged",
				Usage: "Diff HEAD against the staged state (default)",
			},
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Diff HEAD against the live remote playlist",
			},
		},
		Action: r.Diff,
	}
}

// pushCommand replays committed changes onto the remote.
func pushCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "push",
		Usage:  "Replay committed local changes onto the remote playlist",
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Push,
	}
}

// pullCommand records remote drift as a local commit.
func pullCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pull",
		Usage:  "Record remote changes as a new local commit",
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Pull,
	}
}

// revertCommand restores the snapshot of an earlier commit.
func revertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "revert",
		Usage: "Create a new commit restoring an earlier snapshot",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "commit"},
		},
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Revert,
	}
}

// applyCommand stages the diff between HEAD and a snapshot file.
func applyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Stage the changes needed to match a snapshot file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags:  []cli.Flag{configFlag(), playlistFlag()},
		Action: r.Apply,
	}
}
