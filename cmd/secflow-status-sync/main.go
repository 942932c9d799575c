// Package main provides the status sync worker. It consumes node status
// reports from the execution platform and applies them to the store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/runshine/secflow-console/pkg/cmd"
	"github.com/runshine/secflow-console/pkg/log"
	"github.com/runshine/secflow-console/pkg/otelhelper"
	"github.com/runshine/secflow-console/pkg/statusfeed"
)

func main() {
	logger := log.WithModule("status-sync")

	command := &cli.Command{
		Name:                  "secflow-status-sync",
		Usage:                 "Sync node statuses from the execution platform",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider for publishing and subscribing (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address of the status report stream",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				Sources: cli.EnvVars("REDIS_DB"),
			},
			&cli.StringFlag{
				Name:    "stream",
				Usage:   "Redis stream holding status reports",
				Value:   statusfeed.DefaultStream,
				Sources: cli.EnvVars("STATUS_STREAM"),
			},
			&cli.StringFlag{
				Name:    "consumer",
				Usage:   "Consumer name within the sync group",
				Value:   statusfeed.DefaultGroup + "-1",
				Sources: cli.EnvVars("STATUS_CONSUMER"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing status sync worker")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "secflow-status-sync", logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				var err error

				tracer, err = otelhelper.NewTracer(ctx, "secflow-status-sync")
				if err != nil {
					return err
				}
			}

			syncer := statusfeed.NewSyncer(persistence, eventBus, logger, tracer)

			consumer := statusfeed.NewConsumer(statusfeed.ConsumerConfig{
				Addr:     command.String("redis-addr"),
				Password: command.String("redis-password"),
				DB:       int(command.Int("redis-db")),
				Stream:   command.String("stream"),
				Consumer: command.String("consumer"),
			}, syncer, logger)

			if err := consumer.Start(ctx); err != nil {
				return err
			}

			_, subscriber, err := cmd.NewChannel(command.String("event-bus"), "secflow-status-sync", logger)
			if err != nil {
				return err
			}

			busFeed := statusfeed.NewSubscriber(subscriber, syncer, logger)
			if err := busFeed.Listen(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			return consumer.Stop(context.Background())
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
