package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrUnavailable = errors.New("document store unavailable")

type BreakerConfig struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
}

// BreakerStore fails fast while the backend keeps erroring. It never retries.
type BreakerStore struct {
	next  Store
	list  *gobreaker.CircuitBreaker[[]bson.Raw]
	write *gobreaker.CircuitBreaker[bson.Raw]
}

func WithBreaker(next Store, cfg BreakerConfig, log *slog.Logger) *BreakerStore {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "docstore"
	}

	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}
	}

	return &BreakerStore{
		next:  next,
		list:  gobreaker.NewCircuitBreaker[[]bson.Raw](settings(cfg.Name + ".read")),
		write: gobreaker.NewCircuitBreaker[bson.Raw](settings(cfg.Name + ".write")),
	}
}

func (b *BreakerStore) List(ctx context.Context, collection string, q Query) ([]bson.Raw, error) {
	docs, err := b.list.Execute(func() ([]bson.Raw, error) {
		return b.next.List(ctx, collection, q)
	})
	return docs, breakerError(err)
}

func (b *BreakerStore) Create(ctx context.Context, collection, id string, doc any) (bson.Raw, error) {
	raw, err := b.write.Execute(func() (bson.Raw, error) {
		return b.next.Create(ctx, collection, id, doc)
	})
	return raw, breakerError(err)
}

// countsAsSuccess keeps caller-side failures from tripping the breaker.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrMalformedRecord)
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
