package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/server"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth runs the OAuth2 authorization code flow for a provider and stores the
// resulting token. With --status it reports stored credential state and with
// --logout it deletes stored credentials.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	provider, err := models.ParseProvider(cmd.StringArg("provider"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	config := r.loadConfig(cmd)
	root, err := config.RootDir()
	if err != nil {
		return err
	}
	store := shared.NewCredentialStore(root)

	if cmd.Bool("logout") {
		if err := store.Delete(string(provider)); err != nil {
			return err
		}
		return r.writePlain("✓ Credentials for %s deleted\n", provider)
	}

	if cmd.Bool("status") {
		token, err := store.Load(string(provider))
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not authenticated with %s\n", provider)
		}
		if err != nil {
			return err
		}
		if token.Expired() {
			return r.writePlain("⚠ Token for %s expired at %s, run 'plx auth %s'\n", provider, token.Expiry.Local().Format(time.RFC822), provider)
		}
		if token.Expiry.IsZero() {
			return r.writePlain("✓ Authenticated with %s\n", provider)
		}
		return r.writePlain("✓ Authenticated with %s (expires %s)\n", provider, token.Expiry.Local().Format(time.RFC822))
	}

	oauthConfig, err := oauthConfigFor(provider, config)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, provider, oauthConfig)
	if err != nil {
		return err
	}

	stored := &shared.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
	if err := store.Save(string(provider), stored); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved for %s\n\n", provider)
	r.writePlain("You can now use: plx init %s <playlist-id>\n", provider)

	return nil
}

// oauthConfigFor builds the provider's oauth2 configuration after validating
// the configured client credentials.
func oauthConfigFor(provider models.Provider, config *shared.Config) (*oauth2.Config, error) {
	switch provider {
	case models.ProviderSpotify:
		creds := config.Credentials.Spotify
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
		}
		return services.OAuthConfig(creds), nil
	case models.ProviderYouTube:
		creds := config.Credentials.YouTube
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return nil, fmt.Errorf("%w: YouTube client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
		}
		return services.YouTubeOAuthConfig(creds), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidArgument, provider)
	}
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
// listening on the redirect URI's host.
func (r *Runner) doOAuth(ctx context.Context, provider models.Provider, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	redirect, err := url.Parse(oauthConfig.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: invalid redirect URI %q", shared.ErrInvalidConfig, oauthConfig.RedirectURL)
	}

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(oauthHandler)

	serveCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server for %s at %v", provider, redirect.Host)
		if err := server.Serve(serveCtx, redirect.Host, router); err != nil {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for %s authorization...\n", provider)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stopServer()

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
