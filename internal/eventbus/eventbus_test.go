package eventbus

import (
	"context"
	"testing"
)

type ping struct{ n int }
type pong struct{ n int }

func TestPublishReachesSubscribersOfType(t *testing.T) {
	Use(New())
	defer Use(nil)

	var pings, pongs []int
	unsub := Subscribe(func(_ context.Context, e ping) { pings = append(pings, e.n) })
	defer unsub()
	Subscribe(func(_ context.Context, e pong) { pongs = append(pongs, e.n) })

	Publish(context.Background(), ping{1})
	Publish(context.Background(), pong{2})
	Publish(context.Background(), ping{3})

	if len(pings) != 2 || pings[0] != 1 || pings[1] != 3 {
		t.Fatalf("ping handler saw %v", pings)
	}
	if len(pongs) != 1 || pongs[0] != 2 {
		t.Fatalf("pong handler saw %v", pongs)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	Use(New())
	defer Use(nil)

	var count int
	unsub := Subscribe(func(_ context.Context, _ ping) { count++ })
	Publish(context.Background(), ping{1})
	unsub()
	Publish(context.Background(), ping{2})

	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
}

func TestNilBusIsInert(t *testing.T) {
	Use(nil)
	unsub := Subscribe(func(_ context.Context, _ ping) { t.Fatal("should not deliver") })
	Publish(context.Background(), ping{1})
	unsub()
}
