package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func oauthTestConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8080/callback",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges code for token", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "granted",
				"token_type":    "Bearer",
				"refresh_token": "refresh",
				"expires_in":    3600,
			})
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(oauthTestConfig(tokenServer.URL), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if err := result.Error(); err != nil {
			t.Fatalf("expected token, got error %v", err)
		}
		if result.Token.AccessToken != "granted" {
			t.Errorf("expected access token 'granted', got %s", result.Token.AccessToken)
		}
	})

	t.Run("rejects bad state", func(t *testing.T) {
		handler := NewOAuthHandler(oauthTestConfig("http://invalid"), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result for forged state")
		}
	})

	t.Run("reports provider denial", func(t *testing.T) {
		handler := NewOAuthHandler(oauthTestConfig("http://invalid"), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&error=access_denied&error_description=denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result for denied authorization")
		}
	})

	t.Run("accepts only one callback", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"access_token": "granted", "token_type": "Bearer"})
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(oauthTestConfig(tokenServer.URL), "state123")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil))
		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=xyz", nil))

		if first.Code != http.StatusOK {
			t.Errorf("expected first callback to succeed, got %d", first.Code)
		}
		if second.Code != http.StatusBadRequest {
			t.Errorf("expected replayed callback to be rejected, got %d", second.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("enforces method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("applies middleware in order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("expected middleware order [first second], got %v", order)
		}
	})
}
