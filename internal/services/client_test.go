package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/amverse/songbook/internal/models"
	"github.com/amverse/songbook/internal/shared"
	tu "github.com/amverse/songbook/internal/testing"
)

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
	}
}

func TestNewClient(t *testing.T) {
	t.Run("uses default URL when empty", func(t *testing.T) {
		if c := NewClient("", 15*time.Second, nil); c.baseURL != defaultBaseURL {
			t.Errorf("expected baseURL %s, got %s", defaultBaseURL, c.baseURL)
		}
	})

	t.Run("uses custom URL", func(t *testing.T) {
		customURL := "http://localhost:9000"
		if c := NewClient(customURL, 15*time.Second, nil); c.baseURL != customURL {
			t.Errorf("expected baseURL %s, got %s", customURL, c.baseURL)
		}
	})

	t.Run("applies timeout", func(t *testing.T) {
		c := NewClient("", 3*time.Second, nil)
		if c.httpClient.Timeout != 3*time.Second {
			t.Errorf("expected timeout 3s, got %v", c.httpClient.Timeout)
		}
	})
}

func TestClientErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"forbidden maps to ErrForbidden", http.StatusForbidden, shared.ErrForbidden},
		{"not found maps to ErrNotFound", http.StatusNotFound, shared.ErrNotFound},
		{"bad request maps to ErrValidation", http.StatusBadRequest, shared.ErrValidation},
		{"unprocessable maps to ErrValidation", http.StatusUnprocessableEntity, shared.ErrValidation},
		{"server error maps to ErrTransport", http.StatusInternalServerError, shared.ErrTransport},
		{"bad gateway maps to ErrTransport", http.StatusBadGateway, shared.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, nil)
			client.SetCredential(testToken())

			_, err := client.ListSongs(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("network failure maps to ErrTransport", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", time.Second, nil)
		client.SetCredential(testToken())

		_, err := client.ListSongs(context.Background())
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("round trip error maps to ErrTransport", func(t *testing.T) {
		client := NewClient("", time.Second, nil)
		client.SetCredential(testToken())
		client.httpClient.Transport = tu.NewMockRoundTripper(nil, errors.New("connection reset"))

		_, err := client.ListSongs(context.Background())
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("unreadable body surfaces an error", func(t *testing.T) {
		client := NewClient("", time.Second, nil)
		client.SetCredential(testToken())
		client.httpClient.Transport = tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
			Header:     http.Header{},
		}, nil)

		if _, err := client.ListSongs(context.Background()); err == nil {
			t.Error("expected error from unreadable body")
		}
	})
}

func TestClientAttachesBearer(t *testing.T) {
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	client.SetCredential(testToken())

	if _, err := client.ListSongs(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotAuth != "Bearer access-1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientRefreshesOnceAndReplays(t *testing.T) {
	var requests []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)

		switch r.URL.Path {
		case "/songs":
			if r.Header.Get("Authorization") == "Bearer access-2" {
				json.NewEncoder(w).Encode([]any{})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		case "/auth/refresh-token":
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["refreshToken"] != "refresh-1" {
				t.Errorf("expected refresh token refresh-1, got %q", payload["refreshToken"])
			}
			json.NewEncoder(w).Encode(map[string]string{
				"accessToken":  "access-2",
				"refreshToken": "refresh-2",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	client.SetCredential(testToken())

	var refreshed *oauth2.Token
	client.OnRefresh(func(tok *oauth2.Token) { refreshed = tok })

	if _, err := client.ListSongs(context.Background()); err != nil {
		t.Fatalf("expected replay to succeed, got %v", err)
	}

	want := []string{"GET /songs", "POST /auth/refresh-token", "GET /songs"}
	if len(requests) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), requests)
	}
	for i, r := range want {
		if requests[i] != r {
			t.Errorf("request %d: expected %s, got %s", i, r, requests[i])
		}
	}

	if refreshed == nil || refreshed.AccessToken != "access-2" {
		t.Errorf("expected OnRefresh callback with new token, got %+v", refreshed)
	}
	if got := client.Credential(); got.AccessToken != "access-2" {
		t.Errorf("expected stored credential to be replaced, got %s", got.AccessToken)
	}
}

func TestClientSecondRejectionIsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	client.SetCredential(testToken())

	_, err := client.ListSongs(context.Background())
	if !errors.Is(err, shared.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientRefreshFailure(t *testing.T) {
	t.Run("failed refresh surfaces ErrRefreshFailed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)
		client.SetCredential(testToken())

		_, err := client.ListSongs(context.Background())
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
	})

	t.Run("missing refresh token surfaces ErrUnauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)
		client.SetCredential(&oauth2.Token{AccessToken: "access-1"})

		_, err := client.ListSongs(context.Background())
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestClientReportsAuthFailure(t *testing.T) {
	t.Run("failed refresh fires the callback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)
		client.SetCredential(testToken())

		fired := 0
		client.OnAuthFailure(func() { fired++ })

		if _, err := client.ListSongs(context.Background()); err == nil {
			t.Fatal("expected an error")
		}
		if fired != 1 {
			t.Errorf("expected auth failure callback once, got %d", fired)
		}
	})

	t.Run("post-refresh rejection fires the callback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/refresh-token" {
				json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)
		client.SetCredential(testToken())

		fired := 0
		client.OnAuthFailure(func() { fired++ })

		_, err := client.ListSongs(context.Background())
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if fired != 1 {
			t.Errorf("expected auth failure callback once, got %d", fired)
		}
	})

	t.Run("successful refresh does not fire the callback", func(t *testing.T) {
		rejected := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/refresh-token" {
				json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2", "refreshToken": "refresh-2"})
				return
			}
			if !rejected {
				rejected = true
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode([]models.Song{})
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second, nil)
		client.SetCredential(testToken())

		fired := 0
		client.OnAuthFailure(func() { fired++ })

		if _, err := client.ListSongs(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fired != 0 {
			t.Errorf("expected no auth failure callback, got %d", fired)
		}
	})
}

func TestClientKeepsRefreshTokenWhenOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
			return
		}
		if r.Header.Get("Authorization") == "Bearer access-2" {
			json.NewEncoder(w).Encode([]any{})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	client.SetCredential(testToken())

	if _, err := client.ListSongs(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := client.Credential(); got.RefreshToken != "refresh-1" {
		t.Errorf("expected refresh token to be carried forward, got %q", got.RefreshToken)
	}
}
