package mailer

import (
	"context"
	"log"
	"time"

	appErrors "github.com/unclebandit/mailmerge-backend/internal/errors"
)

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
)

// RetrySender wraps another Sender and retries transient failures with a
// fixed inter-attempt delay. Retries are per-message; one recipient's
// retries never block another's.
type RetrySender struct {
	Next     Sender
	Attempts int
	Delay    time.Duration
}

func NewRetrySender(next Sender) *RetrySender {
	return &RetrySender{
		Next:     next,
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
	}
}

func (r *RetrySender) Send(ctx context.Context, msg Message) error {
	var err error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		err = r.Next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if !appErrors.IsTransientSend(err) || attempt == r.Attempts {
			return err
		}

		log.Printf("⚠️ temporary error sending to %s, retrying (attempt %d/%d)", msg.To, attempt, r.Attempts)
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return err
		}
	}
	return err
}

var _ Sender = (*RetrySender)(nil)
