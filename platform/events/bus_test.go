package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	Value int
}

func (e testEvent) EventName() string { return "test.event" }

func TestSubscribeAndPublishSync(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var got []int
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(func(_ context.Context, event Event) error {
		got = append(got, event.(testEvent).Value)
		return nil
	}))

	for i := 1; i <= 3; i++ {
		if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), Value: i}); err != nil {
			t.Fatalf("PublishSync: %v", err)
		}
	}

	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("handler saw %v, want [1 2 3]", got)
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(nil)
	first := errors.New("first")

	calls := 0
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(func(context.Context, Event) error {
		calls++
		return first
	}))
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(func(context.Context, Event) error {
		calls++
		return errors.New("second")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err != first {
		t.Fatalf("err = %v, want first handler error", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, remaining handlers must still run", calls)
	}
}

func TestPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(func(context.Context, Event) error {
		wg.Done()
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestPublishSurvivesPublisherCancellation(t *testing.T) {
	bus := NewInMemoryBus(nil)

	errCh := make(chan error, 1)
	bus.Subscribe(testEvent{}.EventName(), HandlerFunc(func(ctx context.Context, _ Event) error {
		// By now the publisher's context has been canceled.
		time.Sleep(50 * time.Millisecond)
		errCh <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("handler context: %v, want detached from publisher", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestPublishIgnoresUnsubscribedEvents(t *testing.T) {
	bus := NewInMemoryBus(nil)
	// No handlers registered; both publish paths must be no-ops.
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync with no handlers: %v", err)
	}
}
