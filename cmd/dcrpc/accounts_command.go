package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmora/dcrpc"
	"github.com/dmora/dcrpc/deltachat"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with their configuration state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(ctx context.Context, client *dcrpc.Client) error {
				infos, err := accountInfos(ctx, deltachat.New(client))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, infos)
				}
				if len(infos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderAccounts(infos))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func accountInfos(ctx context.Context, dc deltachat.DeltaChat) ([]deltachat.AccountInfo, error) {
	accounts, err := dc.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]deltachat.AccountInfo, 0, len(accounts))
	for _, acc := range accounts {
		info, err := acc.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", acc.ID, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func renderAccounts(infos []deltachat.AccountInfo) string {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			strconv.FormatInt(info.ID, 10),
			yesNo(info.Kind == "Configured"),
			info.Addr,
			info.DisplayName,
		}
	}
	return renderTable(
		[]string{"ID", "Configured", "Address", "Name"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
