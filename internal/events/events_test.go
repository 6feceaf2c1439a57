package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"villa-offers-api/internal/logger"
)

func TestPublish_DeliversToSubscribers(t *testing.T) {
	m := NewManager(true, logger.NewNop())

	var calls atomic.Int32
	for i := 0; i < 2; i++ {
		m.Subscribe(EventListingServed, func(ctx context.Context, e Event) error {
			if e.Type != EventListingServed {
				t.Errorf("Unexpected event type %s", e.Type)
			}
			calls.Add(1)
			return nil
		})
	}
	m.Subscribe(EventSnapshotRefreshed, func(ctx context.Context, e Event) error {
		return errors.New("handler errors are logged, not returned")
	})

	m.PublishListingServed(context.Background(), ListingServedData{Returned: 3})
	m.PublishSnapshotRefreshed(context.Background(), "v1", 10, time.Now())
	m.Wait()

	if calls.Load() != 2 {
		t.Errorf("Expected 2 deliveries, got %d", calls.Load())
	}
}

func TestPublish_SurvivesCancelledContext(t *testing.T) {
	m := NewManager(true, logger.NewNop())

	done := make(chan error, 1)
	m.Subscribe(EventListingServed, func(ctx context.Context, e Event) error {
		done <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.PublishListingServed(ctx, ListingServedData{})
	cancel()
	m.Wait()

	if err := <-done; err != nil {
		t.Errorf("Expected detached context, got %v", err)
	}
}

func TestDisabledAndNilManager(t *testing.T) {
	m := NewManager(false, logger.NewNop())
	called := false
	m.Subscribe(EventListingServed, func(ctx context.Context, e Event) error {
		called = true
		return nil
	})
	m.PublishListingServed(context.Background(), ListingServedData{})
	m.Wait()
	if called {
		t.Error("Expected no delivery when disabled")
	}

	var nilManager *Manager
	nilManager.PublishListingServed(context.Background(), ListingServedData{})
}

func TestShutdown(t *testing.T) {
	m := NewManager(true, logger.NewNop())
	var calls atomic.Int32
	m.Subscribe(EventListingServed, func(ctx context.Context, e Event) error {
		calls.Add(1)
		return nil
	})

	m.Shutdown()
	m.PublishListingServed(context.Background(), ListingServedData{})
	m.Wait()

	if calls.Load() != 0 {
		t.Errorf("Expected no deliveries after shutdown, got %d", calls.Load())
	}
}
