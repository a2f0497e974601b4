package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoadFunc produces the full current snapshot of a collection, already
// marshalled. Feeds re-run it on every change signal; there is no delta
// protocol at this layer.
type LoadFunc func(ctx context.Context) (json.RawMessage, error)

// Feed turns change signals on a Redis channel into full-snapshot pushes.
// Every subscriber receives the complete current snapshot on each change,
// plus the last good snapshot immediately on subscribe. A load error keeps
// the last good snapshot in place.
type Feed struct {
	collection string
	channel    string
	rdb        *redis.Client
	load       LoadFunc
	logger     *zap.Logger

	mu     sync.Mutex
	subs   map[uint64]chan json.RawMessage
	nextID uint64
	last   json.RawMessage
}

// NewFeed creates a feed for one collection of one tenant.
func NewFeed(rdb *redis.Client, appID, collection string, load LoadFunc, logger *zap.Logger) *Feed {
	return &Feed{
		collection: collection,
		channel:    channelFor(appID, collection),
		rdb:        rdb,
		load:       load,
		logger:     logger.With(zap.String("feed", collection)),
		subs:       make(map[uint64]chan json.RawMessage),
	}
}

// Run loads the initial snapshot, then blocks consuming change signals until
// ctx is cancelled. Intended to run in its own goroutine per feed.
func (f *Feed) Run(ctx context.Context) {
	f.reload(ctx)

	pubsub := f.rdb.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			f.reload(ctx)
		}
	}
}

// reload re-reads the snapshot and fans it out. On error the previous
// snapshot stays current.
func (f *Feed) reload(ctx context.Context) {
	snapshot, err := f.load(ctx)
	if err != nil {
		f.logger.Error("Failed to load snapshot, keeping last good one", zap.Error(err))
		return
	}

	f.mu.Lock()
	f.last = snapshot
	for _, sub := range f.subs {
		select {
		case sub <- snapshot:
		default:
			// Slow subscriber: drop this snapshot for it rather than block
			// the feed. It catches up on the next change.
		}
	}
	f.mu.Unlock()
}

// Refresh forces a reload outside the pub/sub loop. The initial snapshot on
// startup goes through here too.
func (f *Feed) Refresh(ctx context.Context) {
	f.reload(ctx)
}

// Subscribe registers a consumer. The returned channel immediately carries
// the last good snapshot if one exists. The cancel func must be called on
// teardown; it closes the channel and releases the subscription.
func (f *Feed) Subscribe() (<-chan json.RawMessage, func()) {
	ch := make(chan json.RawMessage, 4)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	if f.last != nil {
		ch <- f.last
	}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports the current subscriber count.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
