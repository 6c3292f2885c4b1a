// Package mail renders transactional emails and delivers them off the
// request path.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
)

// ErrQueueFull is returned when an email could not be queued.
var ErrQueueFull = errors.New("mail queue is full")

// Message is a rendered email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands a message to background delivery. Dispatch never waits
// for the message to be sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// FormatFrom builds the From header: "<name>" <address>.
func FormatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// deliver sends msg, retrying up to attempts times with a linear backoff.
func deliver(ctx context.Context, sender Sender, msg Message, attempts int, backoff time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = sender.Send(ctx, msg); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}
	return fmt.Errorf("send mail to %s after %d attempts: %w", msg.To, attempts, err)
}
