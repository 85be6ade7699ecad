package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/unclebandit/mailmerge-backend/internal/errors"
)

// scriptedSender fails with the queued errors before succeeding.
type scriptedSender struct {
	failures []error
	calls    int
}

func (s *scriptedSender) Send(ctx context.Context, msg Message) error {
	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	return nil
}

func newTestRetry(next Sender) *RetrySender {
	r := NewRetrySender(next)
	r.Delay = time.Millisecond
	return r
}

func TestRetryTransientThenSuccess(t *testing.T) {
	sender := &scriptedSender{failures: []error{
		appErrors.NewTransientSend(errors.New("421 service unavailable")),
	}}
	r := newTestRetry(sender)

	err := r.Send(context.Background(), Message{To: "a@x.com"})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if sender.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", sender.calls)
	}
}

func TestRetryExhaustsTransientFailures(t *testing.T) {
	transient := appErrors.NewTransientSend(errors.New("421 service unavailable"))
	sender := &scriptedSender{failures: []error{transient, transient, transient}}
	r := newTestRetry(sender)

	err := r.Send(context.Background(), Message{To: "a@x.com"})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if sender.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", sender.calls)
	}
	if !appErrors.IsTransientSend(err) {
		t.Errorf("exhausted error should keep its transient classification")
	}
}

func TestRetryPermanentFailureNotRetried(t *testing.T) {
	sender := &scriptedSender{failures: []error{
		appErrors.NewPermanentSend(errors.New("550 invalid address")),
	}}
	r := newTestRetry(sender)

	err := r.Send(context.Background(), Message{To: "a@x.com"})
	if err == nil {
		t.Fatal("expected permanent failure to propagate")
	}
	if sender.calls != 1 {
		t.Errorf("permanent failure must not be retried, got %d attempts", sender.calls)
	}
}

func TestRetrySuccessFirstAttempt(t *testing.T) {
	sender := &scriptedSender{}
	r := newTestRetry(sender)

	if err := r.Send(context.Background(), Message{To: "a@x.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", sender.calls)
	}
}
