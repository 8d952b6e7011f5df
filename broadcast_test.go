package registry

import "testing"

func TestBroadcasterDeliversToSubscriber(t *testing.T) {
	b := newBroadcaster()
	sub := b.subscribe()
	defer b.unsubscribe(sub)

	want := TrustOp(sampleTrust())
	b.publish(want)

	select {
	case got := <-sub.C():
		if got.Tag != want.Tag {
			t.Fatalf("got tag %q, want %q", got.Tag, want.Tag)
		}
	default:
		t.Fatal("expected a published operation to be immediately available")
	}
}

func TestBroadcasterSignalsLaggedSubscriber(t *testing.T) {
	b := newBroadcaster()
	sub := b.subscribe()
	defer b.unsubscribe(sub)

	for i := 0; i < tailCapacity+1; i++ {
		b.publish(TrustOp(sampleTrust()))
	}

	select {
	case <-sub.Lagged():
	default:
		t.Fatal("expected a lagged signal once the subscriber's buffer overflows")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := newBroadcaster()
	sub := b.subscribe()
	b.unsubscribe(sub)

	b.publish(TrustOp(sampleTrust()))

	select {
	case <-sub.C():
		t.Fatal("unsubscribed subscriber should not receive further operations")
	default:
	}
}
