package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles OAuth2 callback requests for the authorization code
// flow. The handler accepts exactly one callback; later hits are rejected so a
// replayed redirect cannot overwrite the exchanged token.
type OAuthHandler struct {
	config     *oauth2.Config
	state      string
	resultChan chan OAuthResult
	once       sync.Once
	mu         sync.Mutex
	done       bool
}

// NewOAuthHandler creates a new OAuth handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates the state parameter, exchanges the authorization code
// for a token and publishes the outcome on the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.done = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("invalid state parameter"))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest,
			fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err))
		return
	}

	h.send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.send(OAuthResult{err: err})
	http.Error(w, err.Error(), status)
}

// send publishes the OAuth result exactly once.
func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>plx - authorized</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .card { text-align: center; background: white; padding: 2rem;
                border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Authorized</h1>
        <p>plx received your token. You can close this tab and return to the terminal.</p>
    </div>
</body>
</html>
`
