package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// DefaultCallbackAddr is where the local OAuth2 callback server listens.
const DefaultCallbackAddr = "localhost:8080"

const authTimeout = 5 * time.Minute

// ErrAuthTimeout is returned when no OAuth2 callback arrives in time.
var ErrAuthTimeout = errors.New("authentication timed out")

// OAuth2Config holds the client credentials for the interactive flow.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	// TokenFile is where the token is cached between runs. Empty disables
	// caching.
	TokenFile string
	// CallbackAddr defaults to DefaultCallbackAddr.
	CallbackAddr string
}

func oauthConfig(clientID, clientSecret, redirect string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// Authenticate returns a usable token, loading and refreshing the cached one
// when possible and otherwise running the browser consent flow. The printed
// URL must be opened by the user.
func Authenticate(ctx context.Context, config OAuth2Config, printURL func(string)) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		if token, err := LoadToken(config.TokenFile); err == nil {
			slog.Debug("Loaded cached token", "file", config.TokenFile)
			return refresh(ctx, config, token)
		}
	}
	return authenticateInteractive(ctx, config, printURL)
}

func authenticateInteractive(ctx context.Context, config OAuth2Config, printURL func(string)) (*oauth2.Token, error) {
	addr := config.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	cfg := oauthConfig(config.ClientID, config.ClientSecret, "http://"+addr+"/callback")
	state := uuid.NewString()
	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "no authorization code received", http.StatusBadRequest)
			errs <- errors.New("no authorization code received")
			return
		}
		_, _ = fmt.Fprint(w, "Authentication complete. You can close this window.")
		codes <- code
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("callback server failed: %w", err)
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	printURL(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, ErrAuthTimeout
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, token); err != nil {
			slog.Warn("Failed to cache token", "file", config.TokenFile, "error", err)
		}
	}
	return token, nil
}

func refresh(ctx context.Context, config OAuth2Config, token *oauth2.Token) (*oauth2.Token, error) {
	if token.Valid() {
		return token, nil
	}
	fresh, err := oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, fresh); err != nil {
			slog.Warn("Failed to cache refreshed token", "file", config.TokenFile, "error", err)
		}
	}
	return fresh, nil
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
