package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/shorturl/internal/container"
	"github.com/serroba/shorturl/internal/messaging"
	"go.uber.org/zap"
)

// The consumer process handles registration events from the Redis stream
// outside the server, sharing its consumer group.
func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		if err := container.Prepare(options); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		if options.RedisAddr == "" {
			fmt.Fprintln(os.Stderr, "the consumer needs --redis-addr or REDIS_ADDR")
			os.Exit(2)
		}

		injector := do.New()
		do.ProvideValue(injector, options)
		container.ConsumerPackages(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)
			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			<-ctx.Done()
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}
