package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/shared"
	tu "github.com/desertthunder/resub/internal/testing"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("NewHeadless", func(t *testing.T) {
		t.Run("creates client with default URL", func(t *testing.T) {
			if c := NewHeadless(ClientOpts{}); c == nil {
				t.Fatal("expected client to be created")
			} else if c.baseURL != defaultDriverURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultDriverURL, c.baseURL)
			} else if !c.headless {
				t.Error("expected client to be headless")
			}
		})

		t.Run("creates client with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if c := NewHeadless(ClientOpts{BaseURL: customURL}); c.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, c.baseURL)
			}
		})
	})

	t.Run("NewInteractive", func(t *testing.T) {
		if c := NewInteractive(ClientOpts{}); c.headless {
			t.Error("expected interactive client to not be headless")
		}
	})

	t.Run("Start", func(t *testing.T) {
		t.Run("establishes a session", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/session" {
					t.Errorf("expected path /session, got %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.Header.Get("X-State-File") != "/path/to/state.json" {
					t.Errorf("expected X-State-File header")
				}

				var req struct {
					Headless bool `json:"headless"`
				}
				json.NewDecoder(r.Body).Decode(&req)
				if !req.Headless {
					t.Error("expected headless to be true")
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1"})
			}))
			defer server.Close()

			c := NewHeadless(ClientOpts{BaseURL: server.URL, StateFile: "/path/to/state.json"})
			if err := c.Start(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.sessionID != "sess-1" {
				t.Errorf("expected session ID sess-1, got %s", c.sessionID)
			}
		})

		t.Run("fails when driver returns no session id", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{})
			}))
			defer server.Close()

			c := NewHeadless(ClientOpts{BaseURL: server.URL})
			if err := c.Start(ctx); !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Subscribe", func(t *testing.T) {
		entry := models.ChannelEntry{ID: "UC123", Title: "Test Channel", URL: "https://www.youtube.com/channel/UC123"}

		newServer := func(status, detail string) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/session/sess-1/subscribe" {
					t.Errorf("expected path /session/sess-1/subscribe, got %s", r.URL.Path)
				}

				var req struct {
					URL string `json:"url"`
				}
				json.NewDecoder(r.Body).Decode(&req)
				if req.URL != entry.URL {
					t.Errorf("expected url %s, got %s", entry.URL, req.URL)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": status, "detail": detail})
			}))
		}

		t.Run("maps subscribed status to success", func(t *testing.T) {
			server := newServer("subscribed", "")
			defer server.Close()

			c := NewHeadless(ClientOpts{BaseURL: server.URL})
			c.sessionID = "sess-1"

			outcome, err := c.Subscribe(ctx, entry)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !outcome.Subscribed {
				t.Error("expected a subscribed outcome")
			}
		})

		t.Run("maps failure statuses to reasons", func(t *testing.T) {
			cases := map[string]models.FailureReason{
				"already_subscribed": models.ReasonAlreadySubscribed,
				"channel_not_found":  models.ReasonChannelNotFound,
				"action_timeout":     models.ReasonActionTimeout,
				"rate_limited":       models.ReasonRateLimited,
				"something_else":     models.ReasonUnknown,
			}

			for status, reason := range cases {
				server := newServer(status, "detail text")

				c := NewHeadless(ClientOpts{BaseURL: server.URL})
				c.sessionID = "sess-1"

				outcome, err := c.Subscribe(ctx, entry)
				if err != nil {
					t.Fatalf("%s: expected no error, got %v", status, err)
				}
				if outcome.Subscribed {
					t.Errorf("%s: expected a failed outcome", status)
				}
				if outcome.Reason != reason {
					t.Errorf("%s: expected reason %s, got %s", status, reason, outcome.Reason)
				}
				if outcome.Detail != "detail text" {
					t.Errorf("%s: expected detail to be carried through, got %q", status, outcome.Detail)
				}

				server.Close()
			}
		})

		t.Run("fails without a started session", func(t *testing.T) {
			c := NewHeadless(ClientOpts{})
			if _, err := c.Subscribe(ctx, entry); !errors.Is(err, shared.ErrNoSession) {
				t.Fatalf("expected ErrNoSession, got %v", err)
			}
		})
	})

	t.Run("Restart", func(t *testing.T) {
		var deleted bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodDelete:
				deleted = true
				w.WriteHeader(http.StatusNoContent)
			case r.Method == http.MethodPost && r.URL.Path == "/session":
				json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-2"})
			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))
		defer server.Close()

		c := NewHeadless(ClientOpts{BaseURL: server.URL})
		c.sessionID = "sess-1"

		if err := c.Restart(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !deleted {
			t.Error("expected old session to be torn down")
		}
		if c.sessionID != "sess-2" {
			t.Errorf("expected fresh session ID sess-2, got %s", c.sessionID)
		}
	})

	t.Run("Close", func(t *testing.T) {
		t.Run("tears down the session", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete {
					t.Errorf("expected DELETE method, got %s", r.Method)
				}
				if r.URL.Path != "/session/sess-1" {
					t.Errorf("expected path /session/sess-1, got %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			c := NewHeadless(ClientOpts{BaseURL: server.URL})
			c.sessionID = "sess-1"

			if err := c.Close(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.sessionID != "" {
				t.Error("expected session ID to be cleared")
			}
		})

		t.Run("is a no-op without a session", func(t *testing.T) {
			c := NewHeadless(ClientOpts{})
			if err := c.Close(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("CheckAuth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/check" {
				t.Errorf("expected path /auth/check, got %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]bool{"authenticated": true})
		}))
		defer server.Close()

		c := NewHeadless(ClientOpts{BaseURL: server.URL})
		ok, err := c.CheckAuth(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok {
			t.Error("expected authenticated to be true")
		}
	})

	t.Run("Error Handling", func(t *testing.T) {
		t.Run("maps 401 to ErrAuthRequired", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			c := NewHeadless(ClientOpts{BaseURL: server.URL})
			if err := c.Start(ctx); !errors.Is(err, shared.ErrAuthRequired) {
				t.Fatalf("expected ErrAuthRequired, got %v", err)
			}
		})

		t.Run("surfaces driver error detail", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"detail": "browser crashed"})
			}))
			defer server.Close()

			c := NewHeadless(ClientOpts{BaseURL: server.URL})
			err := c.Start(ctx)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("maps request timeouts to ErrTimeout", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(nil, context.DeadlineExceeded)
			c := NewHeadless(ClientOpts{HTTPClient: &http.Client{Transport: rt}})
			if err := c.Start(ctx); !errors.Is(err, shared.ErrTimeout) {
				t.Fatalf("expected ErrTimeout, got %v", err)
			}
		})

		t.Run("maps transport failures to ErrDriverUnavailable", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			c := NewHeadless(ClientOpts{HTTPClient: &http.Client{Transport: rt}})
			if err := c.Start(ctx); !errors.Is(err, shared.ErrDriverUnavailable) {
				t.Fatalf("expected ErrDriverUnavailable, got %v", err)
			}
		})
	})
}
