package bus

import (
	"errors"
	"testing"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ int64) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got any
	_, err := b.Subscribe("test.event", func(e Event) error {
		got = e.Data()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("test.event", "tester", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != 123 {
		t.Fatalf("handler not called, got %v", got)
	}
}

func TestDeliveryOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, _ = b.Subscribe("ev", func(Event) error {
			order = append(order, i)
			return nil
		})
	}
	_ = b.Publish(NewEvent("ev", "src", nil))
	for i, v := range order {
		if v != i {
			t.Fatalf("handlers ran out of order: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(order))
	}
}

func TestHandlerErrorsJoined(t *testing.T) {
	b := New()
	errA, errB := errors.New("a"), errors.New("b")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return nil })
	_, _ = b.Subscribe("x", func(Event) error { return errB })

	err := b.Publish(NewEvent("x", "src", nil))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub, _ := b.Subscribe("ev", func(Event) error { count++; return nil })
	_ = b.Publish(NewEvent("ev", "src", nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	_ = b.Publish(NewEvent("ev", "src", nil))
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
	if err := sub.Cancel(); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	if _, err := New().Subscribe("ev", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}

func TestDispatchDefersUntilFlush(t *testing.T) {
	b := New()
	var seen []any
	_, _ = b.Subscribe("ev", func(e Event) error {
		seen = append(seen, e.Data())
		return nil
	})

	b.Dispatch(NewEvent("ev", "src", 1))
	b.Dispatch(NewEvent("other", "src", 2))
	b.Dispatch(NewEvent("ev", "src", 3))
	if len(seen) != 0 {
		t.Fatalf("dispatch delivered eagerly: %v", seen)
	}
	if b.Pending() != 3 {
		t.Fatalf("expected 3 pending, got %d", b.Pending())
	}

	if err := b.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("unexpected deliveries: %v", seen)
	}
	if b.Pending() != 0 {
		t.Fatalf("queue not cleared: %d", b.Pending())
	}
}

func TestDispatchFromHandlerLandsInNextFlush(t *testing.T) {
	b := New()
	count := 0
	_, _ = b.Subscribe("ev", func(e Event) error {
		count++
		b.Dispatch(NewEvent("ev", "src", nil))
		return nil
	})
	b.Dispatch(NewEvent("ev", "src", nil))
	_ = b.Flush()
	if count != 1 || b.Pending() != 1 {
		t.Fatalf("count=%d pending=%d", count, b.Pending())
	}
}

func TestPublishWithFilters(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	count := 0
	_, _ = b.Subscribe("ev", func(Event) error { count++; return nil })

	reject := func(Event) bool { return false }
	accept := func(Event) bool { return true }
	_ = b.PublishWithFilters(NewEvent("ev", "src", nil), accept, reject)
	_ = b.PublishWithFilters(NewEvent("ev", "src", nil), accept)

	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if m := b.GetMetrics(); m.DroppedByFilters != 1 {
		t.Fatalf("expected 1 drop, got %+v", m)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	// without observer, metrics should remain zero despite activity
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.GetMetrics()
	if m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}
	// now add observer and expect metrics to update
	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	m2 := b.GetMetrics()
	if m2.Published != 1 || m2.DeliveredHandlers != 1 || m2.SubscribersActive != 1 {
		t.Fatalf("metrics should update with observer: %+v", m2)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 {
		t.Fatalf("observer not called: %+v", obs)
	}
	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	if obs.publishCount != 1 {
		t.Fatalf("removed observer still called: %+v", obs)
	}
}
