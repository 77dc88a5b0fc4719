package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/docstore"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// app holds the wired components. The document store is connected on first
// use so offline commands such as "cart show" work without a backend.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	session *session.Store

	docs      docstore.Store
	publisher publisher.OrderPublisher

	closers []func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCommand(a)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the catalog, manage the cart and place cash-on-delivery orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	root.AddCommand(
		newLocationsCommand(a),
		newUseLocationCommand(a),
		newDetectLocationCommand(a),
		newCategoriesCommand(a),
		newProductsCommand(a),
		newLoginCommand(a),
		newRegisterCommand(a),
		newCartCommand(a),
		newCheckoutCommand(a),
		newLogoutCommand(a),
	)
	return root
}

func (a *app) init(ctx context.Context) error {
	a.cfg = config.Load()
	a.log = logger.New(a.cfg.LogLevel)

	kv, err := a.openSessionStore(ctx)
	if err != nil {
		return err
	}
	a.session = session.New(kv, a.log)
	a.session.Init(ctx)

	if len(a.cfg.KafkaBrokers) > 0 {
		k := publisher.NewKafka(a.cfg.OrdersTopic, a.log, a.cfg.KafkaBrokers...)
		a.closers = append(a.closers, k.Close)
		a.publisher = k
	} else {
		a.publisher = publisher.Nop{}
	}
	return nil
}

func (a *app) openSessionStore(ctx context.Context) (kvstore.Store, error) {
	if a.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       0,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		a.log.DebugContext(ctx, "session store on redis", slog.String("addr", a.cfg.RedisAddr))
		return kvstore.NewRedisStore(client, a.cfg.SessionNamespace), nil
	}

	store, err := kvstore.NewSQLiteStore(a.cfg.SessionDBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	if err := store.RunMigrations(); err != nil {
		return nil, err
	}
	a.log.DebugContext(ctx, "session store on sqlite", slog.String("path", a.cfg.SessionDBPath))
	return store, nil
}

func (a *app) documents(ctx context.Context) (docstore.Store, error) {
	if a.docs != nil {
		return a.docs, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := docstore.ConnectMongoDB(connectCtx, a.cfg.MongoURI, a.cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		return db.Client().Disconnect(context.Background())
	})

	mongoStore := docstore.NewMongoStore(db)
	if err := mongoStore.CreateIndexes(connectCtx, a.cfg.Collections.Shops, a.cfg.Collections.Products); err != nil {
		a.log.WarnContext(ctx, "index setup failed", slog.Any("error", err))
	}

	a.docs = docstore.WithBreaker(mongoStore, docstore.BreakerConfig{
		Name:                "mongo",
		ConsecutiveFailures: a.cfg.BreakerFailures,
		OpenTimeout:         a.cfg.BreakerTimeout,
	}, a.log)
	return a.docs, nil
}

func (a *app) catalog(ctx context.Context) (*catalog.Service, error) {
	docs, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewService(docs, catalog.Collections{
		Locations:  a.cfg.Collections.Locations,
		Categories: a.cfg.Collections.Categories,
		Products:   a.cfg.Collections.Products,
	}, a.log), nil
}

func (a *app) accounts(ctx context.Context) (*account.Service, error) {
	docs, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	return account.NewService(docs, a.cfg.Collections.Shops, a.session, a.log), nil
}

func (a *app) checkout(ctx context.Context) (*checkout.Service, error) {
	docs, err := a.documents(ctx)
	if err != nil {
		return nil, err
	}
	return checkout.NewService(docs, checkout.Collections{
		Orders:     a.cfg.Collections.Orders,
		OrderItems: a.cfg.Collections.OrderItems,
	}, a.session, a.publisher, a.log), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("shutdown step failed", slog.Any("error", err))
		}
	}
}
