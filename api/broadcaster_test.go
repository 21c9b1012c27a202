package api

import (
	"context"
	"testing"
	"time"

	"github.com/b0bbywan/go-rtkit/events"
)

func TestBroadcaster_NilFilter_ReceivesAll(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch := b.SubscribeFunc(nil)
	defer b.Unsubscribe(ch)

	upstream <- events.Event{Type: events.TypePromotionApplied}
	upstream <- events.Event{Type: events.TypeConfigReloaded}

	for _, want := range []string{events.TypePromotionApplied, events.TypeConfigReloaded} {
		select {
		case got := <-ch:
			if got.Type != want {
				t.Errorf("got %s, want %s", got.Type, want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timed out waiting for event %s", want)
		}
	}
}

func TestBroadcaster_SubscribeFunc_FiltersEvents(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch := b.SubscribeFunc(events.FilterTypes([]string{events.TypePromotionFailed}))
	defer b.Unsubscribe(ch)

	upstream <- events.Event{Type: events.TypePromotionFailed}
	upstream <- events.Event{Type: events.TypePromotionApplied}

	select {
	case got := <-ch:
		if got.Type != events.TypePromotionFailed {
			t.Errorf("got %s, want %s", got.Type, events.TypePromotionFailed)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for promotion.failed event")
	}

	select {
	case got := <-ch:
		t.Errorf("unexpected event %s delivered through filter", got.Type)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestBroadcaster_FanOut(t *testing.T) {
	upstream := make(chan events.Event, 1)
	b := NewBroadcaster(context.Background(), upstream)

	first, second := b.SubscribeFunc(nil), b.SubscribeFunc(nil)
	defer b.Unsubscribe(first)
	defer b.Unsubscribe(second)

	upstream <- events.Event{Type: events.TypeConfigReloaded}

	for i, ch := range []chan events.Event{first, second} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestBroadcaster_StopsOnContext(t *testing.T) {
	upstream := make(chan events.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroadcaster(ctx, upstream)
	ch := b.SubscribeFunc(nil)
	defer b.Unsubscribe(ch)

	cancel()
	time.Sleep(20 * time.Millisecond)
	upstream <- events.Event{Type: events.TypeConfigReloaded}

	select {
	case got := <-ch:
		t.Errorf("stopped broadcaster delivered %s", got.Type)
	case <-time.After(30 * time.Millisecond):
	}
}
