package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"momentum/internal/secret"
)

// Provider is the key under which the Gmail token is stored.
const Provider = "gmail"

// TokenStore persists encrypted token envelopes.
type TokenStore interface {
	SaveToken(ctx context.Context, provider, envelope string) error
	LoadToken(ctx context.Context, provider string) (string, error)
}

// OAuthConfig builds the read-only Gmail OAuth client from a downloaded
// client secret JSON.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	cfg, err := google.ConfigFromJSON(clientJSON, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth client config: %w", err)
	}
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	return cfg, nil
}

// SaveToken encrypts tok and stores it.
func SaveToken(ctx context.Context, store TokenStore, box *secret.Box, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	env, err := box.Seal(raw)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}
	return store.SaveToken(ctx, Provider, env)
}

// LoadToken reads and decrypts the stored token.
func LoadToken(ctx context.Context, store TokenStore, box *secret.Box) (*oauth2.Token, error) {
	env, err := store.LoadToken(ctx, Provider)
	if err != nil {
		return nil, fmt.Errorf("load gmail token: %w", err)
	}
	raw, err := box.Open(env)
	if err != nil {
		return nil, fmt.Errorf("decrypt gmail token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode gmail token: %w", err)
	}
	return &tok, nil
}

// persistingSource writes refreshed tokens back to the store so a restart
// does not fall back to an expired access token.
type persistingSource struct {
	base  oauth2.TokenSource
	store TokenStore
	box   *secret.Box

	mu   sync.Mutex
	last string
}

// NewTokenSource returns a source that refreshes tok through cfg and saves
// every new access token.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, store TokenStore, box *secret.Box) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(tok, &persistingSource{
		base:  cfg.TokenSource(ctx, tok),
		store: store,
		box:   box,
		last:  tok.AccessToken,
	})
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := SaveToken(context.Background(), p.store, p.box, tok); err != nil {
			slog.Error("Failed to persist refreshed gmail token", "error", err)
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}
