// Package notify delivers one-time codes and account messages to phone owners.
//
// Channels are tried in order until one accepts the message. The last resort is a
// manual relay: the code is posted to an operator chat and a human forwards it.
package notify

import (
	"context"
	"errors"
	"fmt"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelRelay    = "telegram_admin"
)

var (
	ErrNotConfigured     = errors.New("notify: channel not configured")
	ErrAllChannelsFailed = errors.New("notify: all channels failed")
)

// Message is one outbound text. Code is set for OTP messages only.
type Message struct {
	PhoneKey string
	Text     string
	Code     string
}

type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Alerter reaches the operators, not the phone owner.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

func OTPText(code string) string {
	return fmt.Sprintf("Votre code Niplan Market est : %s. Il expire dans quelques minutes.", code)
}

func WelcomeText() string {
	return "Bienvenue sur Niplan Market!\n\nVotre compte est actif.\n" +
		"Vous pouvez maintenant publier vos produits et recevoir des commandes."
}

// runWithContext returns when fn finishes or ctx is done, whichever comes first.
// SDK calls without context support keep running in the background until their own
// client timeout fires.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
