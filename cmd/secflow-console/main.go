// Package main provides the secflow console CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/runshine/secflow-console/pkg/client"
	"github.com/runshine/secflow-console/pkg/console"
	"github.com/runshine/secflow-console/pkg/log"
	"github.com/runshine/secflow-console/pkg/models"
)

func main() {
	command := &cli.Command{
		Name:                  "secflow-console",
		Usage:                 "Inspect and follow security workflow instances",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			watchCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Follow one instance, printing node status changes until it finishes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "server-url",
				Usage:    "Base URL of the management API",
				Required: true,
				Sources:  cli.EnvVars("SECFLOW_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:     "instance-id",
				Aliases:  []string{"i"},
				Usage:    "Instance to watch",
				Required: true,
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Status refresh interval",
				Value:   console.DefaultPollInterval,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			return watch(ctx, command, log.WithModule("console"))
		},
	}
}

func watch(ctx context.Context, command *cli.Command, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewHTTPClient(command.String("server-url"), logger)
	instanceID := command.String("instance-id")

	done := make(chan struct{})
	seen := make(map[string]models.NodeStatus)

	view := console.NewView(api, logger, instanceID,
		console.WithPollInterval(command.Duration("poll-interval")),
		console.WithSnapshotListener(func(instance *models.Instance) {
			printChanges(instance, seen)

			if instance.Status.Terminal() {
				select {
				case <-done:
				default:
					close(done)
				}
			}
		}),
	)

	if err := view.Load(ctx); err != nil {
		return err
	}

	instance := view.Instance()
	fmt.Printf("watching %s (%s) status=%s nodes=%d\n",
		instance.Name, instance.ID, instance.Status, len(instance.Nodes))

	view.StartPolling(ctx)
	defer view.StopPolling()

	select {
	case <-done:
		fmt.Printf("instance %s finished: %s\n", instanceID, view.Instance().Status)

		return nil
	case <-ctx.Done():
		return nil
	}
}

// printChanges emits one line per node whose status differs from the last
// snapshot. Runs under the view lock; it must not call back into the view.
func printChanges(instance *models.Instance, seen map[string]models.NodeStatus) {
	for _, node := range instance.Nodes {
		if previous, ok := seen[node.NodeID]; ok && previous == node.Status {
			continue
		}

		seen[node.NodeID] = node.Status
		fmt.Printf("  %-30s %s\n", console.NodeLabel(node), node.Status)
	}
}
