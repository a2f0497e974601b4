package repository

import "context"

// Collection names signalled through the change notifier.
const (
	CollectionProducts = "products"
	CollectionOrders   = "orders"
)

// ChangeNotifier is told after every successful write so live snapshot feeds
// can reload and push to their subscribers. Notification is best-effort: a
// failed signal never fails the write that triggered it.
type ChangeNotifier interface {
	Changed(ctx context.Context, collection string)
}

// NopNotifier discards change signals. Used by tests and one-shot tooling.
type NopNotifier struct{}

func (NopNotifier) Changed(context.Context, string) {}
