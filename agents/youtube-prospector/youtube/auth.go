package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

const readonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// tokenSaver wraps the OAuth token source and persists every refreshed token,
// so a restarted process keeps working without a new device authorization.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex
}

// Token implements oauth2.TokenSource.
func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		slog.Info("YouTube token refreshed", slog.String("token_file", ts.tokenFile))
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			slog.Warn("failed to save refreshed token", slog.Any("error", err))
		}
	}

	return newToken, nil
}

// loadOrAuthorize returns a stored token when it can still be used or refreshed,
// and falls back to the device authorization flow otherwise.
func loadOrAuthorize(ctx context.Context, config *oauth2.Config, tokenFile string, prompt io.Writer) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil {
		if tok.RefreshToken != "" {
			slog.Info("loaded YouTube token", slog.Time("expiry", tok.Expiry))
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	slog.Info("requesting new YouTube authorization")
	tok, err = authorizeDevice(ctx, config, prompt)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			slog.Error("device authorization rejected",
				slog.String("status", retrieveErr.Response.Status),
				slog.String("body", strings.TrimSpace(string(retrieveErr.Body))))
		}
		return nil, fmt.Errorf("device authorization failed: %w (the OAuth client must be of type 'TVs and Limited Input devices' with the YouTube Data API v3 enabled)", err)
	}

	if err := saveToken(tokenFile, tok); err != nil {
		slog.Warn("failed to save token", slog.Any("error", err))
	}
	return tok, nil
}

func authorizeDevice(ctx context.Context, config *oauth2.Config, prompt io.Writer) (*oauth2.Token, error) {
	resp, err := config.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(prompt, "\n%s\nYOUTUBE DEVICE AUTHORIZATION REQUIRED\n%s\n", rule, rule)
	fmt.Fprintf(prompt, "1. Visit %s in your browser (any device works).\n", resp.VerificationURI)
	fmt.Fprintf(prompt, "2. Enter this code when prompted: %s\n\n", resp.UserCode)
	if complete := strings.TrimSpace(resp.VerificationURIComplete); complete != "" {
		fmt.Fprintf(prompt, "   Or open directly: %s\n\n", complete)
	}
	fmt.Fprintf(prompt, "Waiting for authorization to complete... (Ctrl+C to cancel)\n")

	tok, err := config.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	fmt.Fprintf(prompt, "Authorization successful.\n%s\n\n", rule)
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
