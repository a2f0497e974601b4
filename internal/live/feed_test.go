package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"watermelon-stand/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestSubscribeDeliversLastSnapshotImmediately(t *testing.T) {
	rdb := setupRedis(t)
	feed := NewFeed(rdb, "test-app", "products", func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[{"name":"watermelon"}]`), nil
	}, logger.Nop())

	feed.Refresh(context.Background())

	ch, cancel := feed.Subscribe()
	defer cancel()

	select {
	case snapshot := <-ch:
		if string(snapshot) != `[{"name":"watermelon"}]` {
			t.Errorf("unexpected snapshot %s", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the last snapshot immediately on subscribe")
	}
}

func TestChangeSignalTriggersReloadAndFanOut(t *testing.T) {
	rdb := setupRedis(t)
	var calls atomic.Int64
	feed := NewFeed(rdb, "test-app", "products", func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"call":` + jsonNumber(calls.Add(1)) + `}`), nil
	}, logger.Nop())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go feed.Run(ctx)

	// Wait for the initial snapshot and the pub/sub subscription
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	ch, cancel := feed.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	publisher := NewPublisher(rdb, "test-app", logger.Nop())

	var got json.RawMessage
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		publisher.Changed(context.Background(), "products")
		select {
		case got = <-ch:
		case <-time.After(100 * time.Millisecond):
			continue
		}
		break
	}
	if got == nil {
		t.Fatal("expected a pushed snapshot after a change signal")
	}
}

func TestLoadErrorKeepsLastGoodSnapshot(t *testing.T) {
	rdb := setupRedis(t)
	var fail atomic.Bool
	feed := NewFeed(rdb, "test-app", "orders", func(ctx context.Context) (json.RawMessage, error) {
		if fail.Load() {
			return nil, errors.New("store unavailable")
		}
		return json.RawMessage(`["good"]`), nil
	}, logger.Nop())

	ctx := context.Background()
	feed.Refresh(ctx)

	fail.Store(true)
	feed.Refresh(ctx)

	ch, cancel := feed.Subscribe()
	defer cancel()

	select {
	case snapshot := <-ch:
		if string(snapshot) != `["good"]` {
			t.Errorf("expected the last good snapshot, got %s", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the last good snapshot to survive a failed reload")
	}
}

func TestSlowSubscriberDoesNotBlockFanOut(t *testing.T) {
	rdb := setupRedis(t)
	feed := NewFeed(rdb, "test-app", "products", func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}, logger.Nop())

	slow, cancelSlow := feed.Subscribe()
	defer cancelSlow()
	_ = slow // never drained

	done := make(chan struct{})
	go func() {
		// More refreshes than the subscriber buffer holds
		for i := 0; i < 20; i++ {
			feed.Refresh(context.Background())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fan-out blocked on a slow subscriber")
	}
}

func TestCancelReleasesSubscription(t *testing.T) {
	rdb := setupRedis(t)
	feed := NewFeed(rdb, "test-app", "products", func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}, logger.Nop())

	_, cancel := feed.Subscribe()
	if feed.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", feed.Subscribers())
	}

	cancel()
	if feed.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", feed.Subscribers())
	}

	// A second cancel is harmless
	cancel()
}
