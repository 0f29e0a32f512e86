package mailparse

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// ReadEmail decodes an RFC 5322 message such as a saved .eml file. For
// multipart messages the text/plain part is preferred over text/html.
func ReadEmail(r io.Reader) (Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return Email{}, fmt.Errorf("read message: %w", err)
	}

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		subject = msg.Header.Get("Subject")
	}

	e := Email{
		ID:      strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		From:    msg.Header.Get("From"),
		Subject: subject,
	}
	if d, err := msg.Header.Date(); err == nil {
		e.ReceivedAt = d.UTC()
	} else {
		e.ReceivedAt = time.Now().UTC()
	}

	body, err := readPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return Email{}, err
	}
	e.Body = body
	return e, nil
}

func readPart(contentType, encoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		var plain, html string
		mr := multipart.NewReader(r, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", fmt.Errorf("read multipart: %w", err)
			}
			text, err := readPart(p.Header.Get("Content-Type"), p.Header.Get("Content-Transfer-Encoding"), p)
			if err != nil {
				return "", err
			}
			ct := p.Header.Get("Content-Type")
			switch {
			case plain == "" && (ct == "" || strings.HasPrefix(ct, "text/plain")):
				plain = text
			case html == "" && strings.HasPrefix(ct, "text/html"):
				html = text
			case plain == "" && html == "" && strings.HasPrefix(ct, "multipart/"):
				plain = text
			}
		}
		if plain != "" {
			return plain, nil
		}
		return html, nil
	}

	if strings.EqualFold(strings.TrimSpace(encoding), "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		return decodeBase64(b), nil
	}
	return string(b), nil
}

func decodeBase64(b []byte) string {
	clean := bytes.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == ' ' {
			return -1
		}
		return r
	}, b)
	out := make([]byte, len(clean))
	n, err := base64.StdEncoding.Decode(out, clean)
	if err != nil {
		return string(b)
	}
	return string(out[:n])
}
