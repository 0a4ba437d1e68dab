package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dmora/dcrpc"
	"github.com/dmora/dcrpc/deltachat"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the server's system information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(ctx context.Context, client *dcrpc.Client) error {
				info, err := deltachat.New(client).SystemInfo(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, info)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSystemInfo(info))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func renderSystemInfo(info deltachat.SystemInfo) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, info[k]}
	}
	return renderTable([]string{"Key", "Value"}, rows, nil)
}
