package bus

import "testing"

type pageReady struct {
	PageNumber int
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	var b Bus[pageReady]
	var got []string
	b.Subscribe(func(p pageReady) { got = append(got, "first") })
	b.Subscribe(func(p pageReady) { got = append(got, "second") })

	b.Publish(pageReady{PageNumber: 3})
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected delivery order: %v", got)
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	var b Bus[int]
	var a, c int
	cancelA := b.Subscribe(func(v int) { a += v })
	b.Subscribe(func(v int) { c += v })

	b.Publish(1)
	cancelA()
	cancelA()
	b.Publish(2)

	if a != 1 || c != 3 {
		t.Fatalf("a=%d c=%d, want a=1 c=3", a, c)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
}

func TestBusSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	t.Parallel()

	var b Bus[int]
	calls := 0
	var cancel func()
	cancel = b.Subscribe(func(int) {
		calls++
		cancel()
	})
	b.Publish(1)
	b.Publish(1)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
