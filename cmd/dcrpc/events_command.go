package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmora/dcrpc"
)

// eventPollInterval is how often the stream re-checks an account that has
// not received any event yet.
const eventPollInterval = 100 * time.Millisecond

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var startIO bool

	cmd := &cobra.Command{
		Use:   "events ACCOUNT_ID",
		Short: "Print an account's events as JSON lines until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			return ctx.withClient(cmd, func(ctx context.Context, client *dcrpc.Client) error {
				if startIO {
					if _, err := client.Call(ctx, "start_io", accountID); err != nil {
						return err
					}
				}
				err := streamEvents(ctx, client, accountID, func(ev json.RawMessage) error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), string(ev))
					return err
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&startIO, "start-io", false, "Start the account's network activity first")
	return cmd
}

// eventWaiter is the part of the client streamEvents needs.
type eventWaiter interface {
	WaitForEvent(ctx context.Context, contextID int64) (json.RawMessage, error)
}

// streamEvents hands every event of the account to emit until ctx ends or
// the server goes away.
func streamEvents(ctx context.Context, client eventWaiter, accountID int64, emit func(json.RawMessage) error) error {
	for {
		ev, err := client.WaitForEvent(ctx, accountID)
		if err != nil {
			if errors.Is(err, dcrpc.ErrClosed) {
				return nil
			}
			return err
		}
		if ev == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eventPollInterval):
			}
			continue
		}
		if err := emit(ev); err != nil {
			return err
		}
	}
}
