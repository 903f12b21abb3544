package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/formatter"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/vcs"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	fmtr       *formatter.Formatter
	now        func() time.Time

	// provider overrides adapter construction when set, for tests.
	provider services.Provider
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Color      bool
	Provider   services.Provider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		fmtr:       formatter.NewFormatter(opts.Color),
		now:        time.Now,
		provider:   opts.Provider,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, initCommand, searchCommand,
		addCommand, removeCommand, moveCommand, resetCommand,
		statusCommand, commitCommand, logCommand, showCommand,
		diffCommand, pushCommand, pullCommand, revertCommand, applyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the effective configuration: an injected config wins,
// then the --config file when present, then embedded defaults.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	if r.config != nil {
		return r.config
	}

	path := cmd.String("config")
	if path == "" {
		path = "config.toml"
	}
	if _, err := os.Stat(path); err == nil {
		if config, err := shared.LoadConfig(path); err == nil {
			r.config = config
			r.configPath = path
			return config
		} else {
			r.logger.Warnf("failed to load config, using defaults %v", err)
		}
	}

	r.config = shared.DefaultConfig()
	return r.config
}

// resolvePlaylist determines which playlist a command targets. An explicit
// --playlist flag wins; otherwise a root with exactly one initialized playlist
// selects it.
func (r *Runner) resolvePlaylist(config *shared.Config, cmd *cli.Command) (string, error) {
	if id := cmd.String("playlist"); id != "" {
		return id, nil
	}

	root, err := config.RootDir()
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(filepath.Join(root, "playlists"))
	if err != nil {
		return "", fmt.Errorf("%w: no playlists under %s (run 'plx init' first)", shared.ErrNotInitialized, root)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: no playlists under %s (run 'plx init' first)", shared.ErrNotInitialized, root)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %d playlists tracked, pass --playlist", shared.ErrMissingArgument, len(ids))
	}
}

// openRepo opens the repository for the targeted playlist.
func (r *Runner) openRepo(config *shared.Config, cmd *cli.Command) (*vcs.Repository, error) {
	playlistID, err := r.resolvePlaylist(config, cmd)
	if err != nil {
		return nil, err
	}

	root, err := config.RootDir()
	if err != nil {
		return nil, err
	}

	return vcs.Open(root, playlistID)
}

// buildProvider constructs the adapter for a provider and playlist, loading
// stored credentials. YouTube read operations work with an API key alone.
func (r *Runner) buildProvider(config *shared.Config, kind models.Provider, playlistID string) (services.Provider, error) {
	if r.provider != nil {
		return r.provider, nil
	}

	root, err := config.RootDir()
	if err != nil {
		return nil, err
	}
	store := shared.NewCredentialStore(root)

	switch kind {
	case models.ProviderSpotify:
		token, err := store.Valid(string(kind))
		if err != nil {
			return nil, err
		}
		return services.NewSpotifyService(playlistID, token, r.httpClient, config.Sync.RateLimit), nil
	case models.ProviderYouTube:
		token, err := store.Valid(string(kind))
		if err != nil {
			if config.Credentials.YouTube.APIKey == "" {
				return nil, err
			}
			token = nil
		}
		return services.NewYouTubeService(playlistID, token, config.Credentials.YouTube.APIKey, r.httpClient, config.Sync.RateLimit), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidArgument, kind)
	}
}

// openCache opens the SQLite track cache, applying pending migrations.
func (r *Runner) openCache(config *shared.Config) (*sql.DB, error) {
	path := config.Storage.CachePath
	if path == "" {
		path = "plx.db"
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Storage.MaxOpenConns, config.Storage.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate track cache: %w", err)
	}
	return db, nil
}

// describeFor builds a track label function backed by the given snapshots.
func describeFor(snapshots ...models.Snapshot) func(string) string {
	return func(id string) string {
		for _, s := range snapshots {
			if t, ok := s.TrackByID(id); ok && t.Title != "" {
				return fmt.Sprintf("%s (%s)", t.Title, id)
			}
		}
		return id
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
