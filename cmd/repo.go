package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/plx/internal/diffs"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/repositories"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/tasks"
	"github.com/desertthunder/plx/internal/vcs"
	"github.com/urfave/cli/v3"
)

// Init starts tracking a playlist: it fetches the live remote state and
// records it as the root commit.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	provider, err := models.ParseProvider(cmd.StringArg("provider"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	playlistID := parsePlaylistID(cmd.StringArg("playlist"))
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID or URL required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)
	root, err := config.RootDir()
	if err != nil {
		return err
	}

	svc, err := r.buildProvider(config, provider, playlistID)
	if err != nil {
		return err
	}

	r.logger.Info("fetching playlist", "provider", provider, "playlist", playlistID)
	snapshot, err := svc.FetchSnapshot(ctx)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("init: %s:%s", provider, playlistID)
	repo, err := vcs.Init(root, snapshot, message, r.now())
	if err != nil {
		return err
	}
	defer repo.Close()

	r.cacheTracks(config, snapshot.Tracks)

	head, _ := repo.Head()
	r.writePlain("✓ Tracking %s playlist %s\n", provider, playlistID)
	if snapshot.Name != "" {
		r.writePlain("  Name: %s\n", snapshot.Name)
	}
	r.writePlain("  Root commit %s (%d tracks)\n", head.ShortHash(), len(snapshot.Tracks))
	return nil
}

// parsePlaylistID extracts a playlist ID from a raw ID, a share URL or a
// spotify: URI.
func parsePlaylistID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(s, "spotify:playlist:"); ok {
		return rest
	}
	if at := strings.Index(s, "open.spotify.com/playlist/"); at >= 0 {
		id := s[at+len("open.spotify.com/playlist/"):]
		if q := strings.IndexAny(id, "?/"); q >= 0 {
			id = id[:q]
		}
		return id
	}
	if at := strings.Index(s, "list="); at >= 0 && strings.Contains(s, "youtube.com") {
		id := s[at+len("list="):]
		if q := strings.IndexAny(id, "&/"); q >= 0 {
			id = id[:q]
		}
		return id
	}
	return s
}

// cacheTracks stores track metadata in the local cache, best effort.
func (r *Runner) cacheTracks(config *shared.Config, tracks []models.Track) {
	db, err := r.openCache(config)
	if err != nil {
		r.logger.Warn("track cache unavailable", "error", err)
		return
	}
	defer db.Close()

	repo := repositories.NewTrackRepository(db)
	for _, t := range tracks {
		if err := repo.Cache(t); err != nil {
			r.logger.Warn("failed to cache track", "track", t.ID, "error", err)
		}
	}
}

// Status shows HEAD, sync state and the staging area.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	head, ok := repo.Head()
	if !ok {
		return fmt.Errorf("%w: repository has no commits", shared.ErrNotInitialized)
	}

	out := r.fmtr.Status(repo.PlaylistID(), repo.Provider(), head, repo.StagedChanges(), repo.Watermark().LastPushedHash)
	return r.writePlain("%s\n", out)
}

// Commit records the staged changes as a new commit.
func (r *Runner) Commit(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	commit, err := repo.Commit(cmd.String("message"), r.now())
	if err != nil {
		return err
	}

	r.logger.Info("committed", "playlist", repo.PlaylistID(), "hash", commit.ShortHash())
	return r.writePlain("%s\n", r.fmtr.Commit(commit))
}

// Log shows commit history, newest first.
func (r *Runner) Log(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	limit := int(cmd.Int("limit"))
	var commits []models.Commit
	for c := range repo.Log() {
		if limit > 0 && len(commits) >= limit {
			break
		}
		commits = append(commits, c)
	}

	return r.writePlain("%s\n", r.fmtr.Log(commits))
}

// Show lists the playlist tracks at HEAD or at a given commit.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	snapshot := repo.HeadSnapshot()
	if ref := cmd.String("commit"); ref != "" {
		commit, err := repo.LookupCommit(ref)
		if err != nil {
			return err
		}
		snapshot = commit.Snapshot
	}

	return r.writePlain("%s\n", r.fmtr.TrackList(snapshot))
}

// Revert creates a new commit restoring the snapshot of an earlier one.
func (r *Runner) Revert(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("commit")
	if ref == "" {
		return fmt.Errorf("%w: commit hash or prefix required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	engine := tasks.NewVersionEngine(repo, nil, config.Sync, r.logger)
	commit, err := engine.Revert(ref)
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", r.fmtr.Commit(commit))
}

// Apply stages the changes needed to transform HEAD into a snapshot file.
func (r *Runner) Apply(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: snapshot file required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	target, err := vcs.LoadSnapshotFile(path)
	if err != nil {
		return err
	}

	head := repo.HeadSnapshot()
	script := diffs.Compute(head.TrackIDs(), target.TrackIDs())
	if script.Empty() {
		return r.writePlain("nothing to apply, %s matches HEAD\n", path)
	}

	for _, c := range script.Changes {
		switch c.Op {
		case diffs.OpRemove:
			err = repo.StageRemove(c.TrackID)
		case diffs.OpAdd:
			track, ok := target.TrackByID(c.TrackID)
			if !ok {
				track = models.Track{ID: c.TrackID, Provider: repo.Provider()}
			}
			at := c.Index
			err = repo.StageAdd(track, &at)
		case diffs.OpMove:
			err = repo.StageMove(c.TrackID, c.Index)
		}
		if err != nil {
			return fmt.Errorf("failed to stage %s of %s: %w", c.Op, c.TrackID, err)
		}
	}

	r.writePlain("%s\n", r.fmtr.Script(script, describeFor(head, target)))
	return r.writePlain("✓ Staged %d change(s) from %s\n", len(script.Changes), path)
}
