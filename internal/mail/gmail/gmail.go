// Package gmail fetches bank alert emails from a Gmail mailbox.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"momentum/internal/mailparse"
	"momentum/internal/secret"
)

// DefaultQuery narrows the mailbox to recent card alerts.
const DefaultQuery = `newer_than:7d (subject:alert OR subject:transaction) ("credit card")`

const me = "me"

// Source lists and downloads messages matching a Gmail search query.
type Source struct {
	svc   *gmailapi.Service
	query string
}

// New creates a Source. A nil ts is allowed when opts carry their own
// authentication.
func New(ctx context.Context, ts oauth2.TokenSource, query string, opts ...option.ClientOption) (*Source, error) {
	if ts != nil {
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	}
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	return &Source{svc: svc, query: query}, nil
}

// Connect loads the encrypted token saved by oauth-init and returns a
// Source whose refreshed tokens are written back to store.
func Connect(ctx context.Context, clientJSON []byte, store TokenStore, box *secret.Box, query string) (*Source, error) {
	cfg, err := OAuthConfig(clientJSON, "")
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(ctx, store, box)
	if err != nil {
		return nil, err
	}
	return New(ctx, NewTokenSource(ctx, cfg, tok, store, box), query)
}

// Fetch returns up to limit messages, newest first.
func (s *Source) Fetch(ctx context.Context, limit int) ([]mailparse.Email, error) {
	list, err := s.svc.Users.Messages.List(me).
		Q(s.query).
		MaxResults(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]mailparse.Email, 0, len(list.Messages))
	for _, m := range list.Messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full, err := s.svc.Users.Messages.Get(me, m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", m.Id, err)
		}
		out = append(out, toEmail(full))
	}

	slog.DebugContext(ctx, "Fetched gmail messages", "count", len(out), "query", s.query)
	return out, nil
}

func toEmail(m *gmailapi.Message) mailparse.Email {
	e := mailparse.Email{
		ID:         m.Id,
		ReceivedAt: time.UnixMilli(m.InternalDate).UTC(),
	}
	if m.Payload == nil {
		e.Body = m.Snippet
		return e
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			e.From = h.Value
		case "subject":
			e.Subject = h.Value
		}
	}
	e.Body = body(m.Payload, "text/plain")
	if e.Body == "" {
		e.Body = body(m.Payload, "text/html")
	}
	if e.Body == "" {
		e.Body = m.Snippet
	}
	return e
}

// body returns the first part of the given MIME type, searching depth first.
func body(p *gmailapi.MessagePart, mimeType string) string {
	if strings.HasPrefix(p.MimeType, mimeType) && p.Body != nil && p.Body.Data != "" {
		return decode(p.Body.Data)
	}
	for _, part := range p.Parts {
		if b := body(part, mimeType); b != "" {
			return b
		}
	}
	return ""
}

func decode(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
	}
	return string(b)
}
