package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/namastexlabs/roombook/internal/secrets"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Flow handles the OAuth sign-in sequence: redirect to Google, exchange the
// callback code, resolve the user's email, persist the refresh token, and
// open a session.
type Flow struct {
	config   *oauth2.Config
	sessions *SessionStore
	tokens   *secrets.Store
	log      *slog.Logger

	// Overridable for tests.
	exchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)
	userinfoFunc func(ctx context.Context, token *oauth2.Token) (string, error)
}

// NewFlow builds a Flow. tokens may be nil, in which case refresh tokens are
// not persisted across restarts.
func NewFlow(clientID, clientSecret, redirectURL string, sessions *SessionStore, tokens *secrets.Store, logger *slog.Logger) *Flow {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/calendar",
		},
	}

	f := &Flow{
		config:   cfg,
		sessions: sessions,
		tokens:   tokens,
		log:      logger,
	}

	f.exchangeFunc = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return cfg.Exchange(ctx, code, oauth2.AccessTypeOffline)
	}
	f.userinfoFunc = f.fetchUserinfo

	return f
}

// LoginURL returns the Google consent URL for the given CSRF state.
func (f *Flow) LoginURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// TokenSource returns a refreshing token source for a delegated token.
func (f *Flow) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return f.config.TokenSource(ctx, token)
}

// HandleCallback exchanges the authorization code, resolves the user's email,
// stores the refresh token, and opens a session.
func (f *Flow) HandleCallback(ctx context.Context, code string) (*Session, error) {
	token, err := f.exchangeFunc(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	email, err := f.userinfoFunc(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve user email: %w", err)
	}

	if f.tokens != nil && token.RefreshToken != "" {
		err := f.tokens.SetToken(email, secrets.Token{
			Email:        email,
			RefreshToken: token.RefreshToken,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			// Non-fatal: the session still works, it just won't survive a restart.
			f.log.Warn("failed to persist refresh token", "email", email, "err", err)
		}
	}

	sess := f.sessions.Create(email, token)
	f.log.Info("user signed in", "email", email)
	return sess, nil
}

// Logout drops the session and forgets the stored refresh token.
func (f *Flow) Logout(sessionID string) {
	if sess, ok := f.sessions.Get(sessionID); ok && f.tokens != nil {
		if err := f.tokens.DeleteToken(sess.Email); err != nil {
			f.log.Warn("failed to delete stored token", "email", sess.Email, "err", err)
		}
	}
	f.sessions.Delete(sessionID)
}

func (f *Flow) fetchUserinfo(ctx context.Context, token *oauth2.Token) (string, error) {
	client := f.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("userinfo response has no email")
	}
	return info.Email, nil
}
