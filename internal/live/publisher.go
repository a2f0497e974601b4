package live

import (
	"context"
	"fmt"

	"watermelon-stand/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// channelFor builds the tenant-scoped pub/sub channel name for a collection.
func channelFor(appID, collection string) string {
	return fmt.Sprintf("changes:%s:%s", appID, collection)
}

// NewRedisClient creates a Redis client for the change channels and the
// rate-limit counters.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Publisher signals collection changes over Redis pub/sub. It satisfies
// repository.ChangeNotifier. A publish failure is logged and dropped: the
// write it follows has already committed, and feeds resync on their next
// message anyway.
type Publisher struct {
	rdb    *redis.Client
	appID  string
	logger *zap.Logger
}

// NewPublisher creates a change publisher for the given tenant.
func NewPublisher(rdb *redis.Client, appID string, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, appID: appID, logger: logger}
}

// Changed publishes a change signal for the named collection.
func (p *Publisher) Changed(ctx context.Context, collection string) {
	channel := channelFor(p.appID, collection)
	if err := p.rdb.Publish(ctx, channel, "changed").Err(); err != nil {
		p.logger.Error("Failed to publish change signal",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}
