package events

import (
	"testing"
	"time"

	"github.com/unclebandit/mailmerge-backend/internal/model"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(model.SentMail{Recipient: "a@x.com", Batch: 1, Seq: 1})

	select {
	case rec := <-ch:
		if rec.Recipient != "a@x.com" {
			t.Errorf("unexpected record: %+v", rec)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the record")
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	defer cancel()

	// More events than the subscriber buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.Publish(model.SentMail{Seq: i + 1})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()

	// Channel is closed; publishing afterwards must not panic.
	h.Publish(model.SentMail{Seq: 1})

	if _, open := <-ch; open {
		t.Error("channel should be closed after cancel")
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	cancel()
	cancel()
}
