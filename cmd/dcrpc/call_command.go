package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmora/dcrpc"
)

func newCallCommand(ctx *commandContext) *cobra.Command {
	var named []string

	cmd := &cobra.Command{
		Use:   "call METHOD [ARG...]",
		Short: "Call a server method and print its result",
		Long: `Call a server method and print its result as JSON.

Each ARG is parsed as a JSON value; anything that is not valid JSON is
sent as a string. --named sends by-name parameters instead and cannot be
combined with positional arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := buildCallArgs(args[1:], named)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(ctx context.Context, client *dcrpc.Client) error {
				result, err := client.Call(ctx, args[0], params...)
				if err != nil {
					return err
				}
				if result == nil {
					result = json.RawMessage("null")
				}
				return writeJSON(cmd, result)
			})
		},
	}

	cmd.Flags().StringArrayVar(&named, "named", nil, "By-name parameter as key=value (repeatable)")
	return cmd
}

// buildCallArgs turns command-line words into Call arguments.
func buildCallArgs(positional, named []string) ([]any, error) {
	if len(named) > 0 {
		if len(positional) > 0 {
			return nil, fmt.Errorf("--named cannot be combined with positional arguments: %w", dcrpc.ErrMixedParams)
		}
		params := dcrpc.Named{}
		for _, kv := range named {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return nil, fmt.Errorf("--named %q: want key=value", kv)
			}
			params[key] = parseArg(value)
		}
		return []any{params}, nil
	}

	args := make([]any, len(positional))
	for i, word := range positional {
		args[i] = parseArg(word)
	}
	return args, nil
}

// parseArg returns word as raw JSON when it is valid JSON, else as a string.
func parseArg(word string) any {
	if json.Valid([]byte(word)) {
		return json.RawMessage(word)
	}
	return word
}
