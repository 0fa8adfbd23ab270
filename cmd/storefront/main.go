// cmd/storefront/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/domain/review"
	"github.com/your-org/storefront-client/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-client/internal/interfaces/cli"
	"github.com/your-org/storefront-client/internal/interfaces/confirm"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/logger"
	"github.com/your-org/storefront-client/internal/pkg/pdf"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

func main() {
	profile := flag.String("profile", "default", "saved session to use")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Logs go to stderr so they never interleave with page output
	log := logger.NewWithWriter(cfg, os.Stderr).WithField("component", "storefront")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		sessions  auth.SessionRepository = &auth.MemorySessions{}
		snapshots store.SnapshotRepository
		authStore *auth.Store
	)

	// Redis keeps the session and the last good store snapshots between runs
	var persisted *redis.SessionRepository
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewConnection(cfg, log)
		if err != nil {
			log.Warnf("Redis unavailable, the session lasts for this run only: %v", err)
		} else {
			defer redisClient.Close()
			persisted = redis.NewSessionRepository(redisClient, cfg.Session, *profile)
			sessions = persisted
			snapshots = persisted
		}
	}

	notifier := toast.Multi{toast.NewConsole(os.Stdout), toast.NewLog(log)}

	client := apiclient.NewFromConfig(cfg, apiclient.TokenFunc(func() string {
		return authStore.Token()
	}), log)

	authStore = auth.NewStore(auth.NewHTTPAPI(client), sessions, log, notifier)
	client.SetUnauthorizedHandler(authStore.HandleUnauthorized)

	if persisted != nil {
		persisted.ScopeSnapshots(func() string {
			if u := authStore.User(); u != nil {
				return u.ID
			}
			return ""
		})
	}

	if err := authStore.Restore(ctx); err != nil {
		log.WithError(err).Warn("Failed to restore session")
	}

	deps := store.Deps{
		Tokens:    authStore,
		Logger:    log,
		Notifier:  notifier,
		Snapshots: snapshots,
	}
	limit := cfg.API.PageSize
	stdin := bufio.NewReader(os.Stdin)

	app := cli.NewApp(cli.Deps{
		Auth:          authStore,
		Cart:          cart.NewStore(cart.NewHTTPAPI(client), deps),
		Notifications: notification.NewStore(notification.NewHTTPAPI(client), deps, limit),
		Orders:        order.NewStore(order.NewHTTPAPI(client), deps, limit),
		Products:      product.NewStore(product.NewHTTPAPI(client), deps, limit),
		Reviews:       review.NewStore(review.NewHTTPAPI(client), deps, review.Filter{}, limit),
		Vouchers:      promotion.NewStore(promotion.NewHTTPAPI(client), deps, promotion.Filter{}, limit),
		Invoices:      pdf.NewService(cfg),
		Prompter:      confirm.NewTerminal(stdin, os.Stdout),
		Logger:        log,
		Out:           os.Stdout,
	})
	defer app.Close()

	args := flag.Args()
	if len(args) == 0 || args[0] == "shell" {
		if err := app.Shell(ctx, stdin); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Shell stopped")
		}
		return
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}
