package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/repositories"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Add stages a track addition, resolving metadata from the local cache first
// and falling back to the provider.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track ID required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	track := r.resolveTrack(ctx, config, repo.Provider(), repo.PlaylistID(), trackID)

	var insertAt *int
	if at := int(cmd.Int("at")); at >= 0 {
		insertAt = &at
	}

	if err := repo.StageAdd(track, insertAt); err != nil {
		return err
	}

	change := models.StagedChange{Kind: models.ChangeAdd, TrackID: trackID, Track: &track, Index: insertAt}
	return r.writePlain("staged %s\n", r.fmtr.StagedChange(change))
}

// resolveTrack looks up track metadata, trying the cache, then the provider.
// An unresolvable track is staged with its bare ID.
func (r *Runner) resolveTrack(ctx context.Context, config *shared.Config, provider models.Provider, playlistID, trackID string) models.Track {
	if db, err := r.openCache(config); err == nil {
		cached, err := repositories.NewTrackRepository(db).GetByProviderID(provider, trackID)
		db.Close()
		if err == nil {
			return cached
		}
	}

	svc, err := r.buildProvider(config, provider, playlistID)
	if err == nil {
		if track, err := svc.ResolveTrack(ctx, trackID); err == nil {
			r.cacheTracks(config, []models.Track{track})
			return track
		}
	}

	r.logger.Warn("could not resolve track metadata, staging bare ID", "track", trackID)
	return models.Track{ID: trackID, Provider: provider}
}

// Remove stages a track removal.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track ID required", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.StageRemove(trackID); err != nil {
		return err
	}

	change := models.StagedChange{Kind: models.ChangeRemove, TrackID: trackID}
	return r.writePlain("staged %s\n", r.fmtr.StagedChange(change))
}

// Move stages a track reposition.
func (r *Runner) Move(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track ID required", shared.ErrMissingArgument)
	}
	index := int(cmd.IntArg("index"))

	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.StageMove(trackID, index); err != nil {
		return err
	}

	change := models.StagedChange{Kind: models.ChangeMove, TrackID: trackID, Index: &index}
	return r.writePlain("staged %s\n", r.fmtr.StagedChange(change))
}

// Reset discards all staged changes.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	repo, err := r.openRepo(config, cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	staged := len(repo.StagedChanges())
	if err := repo.ResetStaging(); err != nil {
		return err
	}

	return r.writePlain("✓ Discarded %d staged change(s)\n", staged)
}

// Search finds tracks on a provider, or in the local cache with --cached.
// Provider results are cached for later lookups.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query required", shared.ErrMissingArgument)
	}

	provider, err := models.ParseProvider(cmd.String("provider"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	config := r.loadConfig(cmd)

	var tracks []models.Track
	if cmd.Bool("cached") {
		db, err := r.openCache(config)
		if err != nil {
			return err
		}
		defer db.Close()

		tracks, err = repositories.NewTrackRepository(db).Search(provider, query)
		if err != nil {
			return err
		}
	} else {
		svc, err := r.buildProvider(config, provider, "")
		if err != nil {
			return err
		}

		r.logger.Info("searching", "provider", provider, "query", query)
		tracks, err = svc.Search(ctx, query)
		if err != nil {
			return err
		}
		r.cacheTracks(config, tracks)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}
	return r.writePlain("%s\n", r.fmtr.SearchResults(tracks))
}
