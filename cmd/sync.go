package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/tasks"
	"github.com/desertthunder/plx/internal/vcs"
	"github.com/urfave/cli/v3"
)

// buildEngine opens the targeted repository and wires a sync engine bound to
// its provider. The caller must Close the returned repository.
func (r *Runner) buildEngine(config *shared.Config, cmd *cli.Command) (*vcs.Repository, *tasks.VersionEngine, error) {
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return nil, nil, err
	}

	svc, err := r.buildProvider(config, repo.Provider(), repo.PlaylistID())
	if err != nil {
		repo.Close()
		return nil, nil, err
	}

	return repo, tasks.NewVersionEngine(repo, svc, config.Sync, r.logger), nil
}

// renderProgress streams engine progress updates to the output until the
// channel closes.
func (r *Runner) renderProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchRemote:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ComputeDiff:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.ApplyChanges:
				r.writePlain("   %s\n", update.Message)
			case tasks.RecordCommit:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()
	return done
}

// renderConflict prints both sides of a sync conflict.
func (r *Runner) renderConflict(conflict *tasks.ConflictError) {
	r.writePlainln("✗ Conflict: local and remote changed since the last sync point")
	r.writePlain("Local changes:\n%s\n\n", r.fmtr.Script(conflict.Local, nil))
	r.writePlain("Remote changes:\n%s\n\n", r.fmtr.Script(conflict.Remote, nil))
	r.writePlain("Resolve by pulling first ('plx pull') or reverting local commits ('plx revert').\n")
}

// Push replays committed local changes onto the remote playlist.
func (r *Runner) Push(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, engine, err := r.buildEngine(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.renderProgress(progressCh)

	result, err := engine.Push(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		var conflict *tasks.ConflictError
		if errors.As(err, &conflict) {
			r.renderConflict(conflict)
		}
		return err
	}

	if result.UpToDate {
		return r.writePlain("✓ Already up to date\n")
	}

	r.writePlain("\n%s\n\n", r.fmtr.Script(result.Script, describeFor(result.Head.Snapshot)))
	return r.writePlain("✓ Pushed %d operation(s), remote now at %s\n", result.Applied, result.Head.ShortHash())
}

// Pull records remote drift as a new local commit.
func (r *Runner) Pull(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, engine, err := r.buildEngine(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.renderProgress(progressCh)

	result, err := engine.Pull(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		var conflict *tasks.ConflictError
		if errors.As(err, &conflict) {
			r.renderConflict(conflict)
		}
		return err
	}

	if result.UpToDate {
		return r.writePlain("✓ Already up to date\n")
	}

	r.writePlain("\n%s\n\n", r.fmtr.Script(result.Script, describeFor(result.Commit.Snapshot)))
	return r.writePlain("✓ Pulled remote changes, HEAD now at %s\n", result.Commit.ShortHash())
}

// Diff shows the edit script from HEAD to the staged state, or to the live
// remote with --remote.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("staged") && cmd.Bool("remote") {
		return fmt.Errorf("%w: --staged and --remote are mutually exclusive", shared.ErrInvalidFlag)
	}

	config := r.loadConfig(cmd)

	if cmd.Bool("remote") {
		repo, engine, err := r.buildEngine(config, cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		script, remote, err := engine.DiffRemote(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", r.fmtr.Script(script, describeFor(repo.HeadSnapshot(), remote)))
	}

	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	engine := tasks.NewVersionEngine(repo, nil, config.Sync, r.logger)
	script, err := engine.DiffStaged()
	if err != nil {
		return err
	}

	eventual, err := repo.ProspectiveSnapshot()
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", r.fmtr.Script(script, describeFor(repo.HeadSnapshot(), eventual)))
}
