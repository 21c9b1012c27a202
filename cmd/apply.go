package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/b0bbywan/go-rtkit/events"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/promoter"
)

func (a *app) applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the promotions listed in the config file once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(client Client) error {
				p := promoter.New(client, a.cfg.Promoter)
				err := p.Apply(cmd.Context())
				printEvents(cmd.OutOrStdout(), p.Events())
				return err
			})
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Apply the promotions and re-apply them whenever the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.File == "" {
				return errors.New("watch needs a config file")
			}
			filter, err := events.FilterGroups(only)
			if err != nil {
				return fmt.Errorf("--events: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withClient(ctx, func(client Client) error {
				p := promoter.New(client, a.cfg.Promoter)
				p.SetFilter(filter)
				return watch(ctx, cmd.OutOrStdout(), p, a.cfg.File)
			})
		},
	}
	cmd.Flags().StringSliceVar(&only, "events", nil, "event groups to print (promotion, config), all when empty")
	return cmd
}

// watch prints events as they come until ctx is done and the promoter
// stopped watching.
func watch(ctx context.Context, out io.Writer, p *promoter.Promoter, path string) error {
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, path) }()

	enc := json.NewEncoder(out)
	for {
		select {
		case e := <-p.Events():
			writeEvent(enc, e)
		case err := <-done:
			printEvents(out, p.Events())
			return err
		}
	}
}

// printEvents writes the events already queued on ch.
func printEvents(out io.Writer, ch <-chan events.Event) {
	enc := json.NewEncoder(out)
	for {
		select {
		case e := <-ch:
			writeEvent(enc, e)
		default:
			return
		}
	}
}

func writeEvent(enc *json.Encoder, e events.Event) {
	line := struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{e.Type, e.Data}
	if err := enc.Encode(line); err != nil {
		logger.Warn("[cmd] failed to print %s event: %v", e.Type, err)
	}
}
