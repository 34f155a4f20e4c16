package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/theodorecharles/galleryd/internal/core/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := event.NewBus()
	ctx := context.Background()

	var got []event.Event
	bus.Subscribe(event.EventJobQueued, func(_ context.Context, e event.Event) error {
		got = append(got, e)
		return nil
	})

	payload := event.JobEvent{JobID: "summer/beach.jpg", Album: "summer", Filename: "beach.jpg"}
	if err := bus.Publish(ctx, event.Event{Type: event.EventJobQueued, Payload: payload}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("handler calls = %d, want 1", len(got))
	}
	if got[0].Type != event.EventJobQueued {
		t.Errorf("Type = %q, want %q", got[0].Type, event.EventJobQueued)
	}
	if p, ok := got[0].Payload.(event.JobEvent); !ok || p.JobID != "summer/beach.jpg" {
		t.Errorf("Payload = %+v, want JobEvent with JobID summer/beach.jpg", got[0].Payload)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("Timestamp should be stamped at publish")
	}
}

func TestBus_TypeIsolation(t *testing.T) {
	bus := event.NewBus()
	ctx := context.Background()

	calls := 0
	bus.Subscribe(event.EventJobCompleted, func(_ context.Context, e event.Event) error {
		calls++
		return nil
	})

	bus.Publish(ctx, event.Event{Type: event.EventJobFailed})
	if calls != 0 {
		t.Errorf("handler ran for a different event type, calls = %d", calls)
	}

	bus.Publish(ctx, event.Event{Type: event.EventJobCompleted})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := event.NewBus()
	ctx := context.Background()

	calls := 0
	unsubscribe := bus.Subscribe(event.EventJobProgress, func(_ context.Context, e event.Event) error {
		calls++
		return nil
	})

	bus.Publish(ctx, event.Event{Type: event.EventJobProgress})
	unsubscribe()
	unsubscribe() // must be safe to call twice
	bus.Publish(ctx, event.Event{Type: event.EventJobProgress})

	if calls != 1 {
		t.Errorf("calls = %d, want 1 after unsubscribe", calls)
	}
}

func TestBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := event.NewBus()
	ctx := context.Background()

	bus.Subscribe(event.EventJobFailed, func(_ context.Context, e event.Event) error {
		return errors.New("boom")
	})

	delivered := false
	bus.Subscribe(event.EventJobFailed, func(_ context.Context, e event.Event) error {
		delivered = true
		return nil
	})

	if err := bus.Publish(ctx, event.Event{Type: event.EventJobFailed}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !delivered {
		t.Error("second handler should still run after the first errors")
	}
}
