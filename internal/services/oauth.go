package services

import (
	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// YouTubeOAuthConfig builds the oauth2 configuration for the Google
// authorization code flow with the YouTube scope playlist sync requires.
func YouTubeOAuthConfig(cfg shared.YouTubeConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}
}
