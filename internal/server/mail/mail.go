// Package mail sends transactional email. Senders deliver one Message
// synchronously; Dispatcher runs them in the background so callers never
// wait on, or fail because of, delivery.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the email that carries the verification link
// for token. baseURL is the public origin of the HTTP API.
func VerificationMessage(to, baseURL, token string) Message {
	link := strings.TrimRight(baseURL, "/") + "/users/verify/" + url.PathEscape(token)
	return Message{
		To:      to,
		Subject: "Verify your email",
		Text:    fmt.Sprintf("Confirm your email address by opening %s", link),
		HTML:    fmt.Sprintf(`<p>Confirm your email address:</p><p><a target="_blank" href="%s">Verify email</a></p>`, link),
	}
}
