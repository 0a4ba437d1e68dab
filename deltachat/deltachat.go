// Package deltachat is a typed layer over the Delta Chat JSON-RPC API.
//
// Every method is a thin wrapper that builds the positional arguments for
// one server method and decodes its result. The objects ([Account],
// [Contact], [Chat], [Message]) are small comparable values holding the
// ids that address them; two values are equal when they name the same
// object on the same connection.
//
//	err := dcrpc.Run(ctx, func(c *dcrpc.Client) error {
//	    dc := deltachat.New(c)
//	    accounts, err := dc.Accounts(ctx)
//	    ...
//	})
package deltachat

import (
	"context"
	"encoding/json"

	"github.com/dmora/dcrpc"
)

// Caller is the transport the typed layer runs on. *dcrpc.Client
// satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, args ...any) (json.RawMessage, error)
	CallInto(ctx context.Context, out any, method string, args ...any) error
	WaitForEvent(ctx context.Context, contextID int64) (json.RawMessage, error)
}

var _ Caller = (*dcrpc.Client)(nil)

// SystemInfo is the server's get_system_info result: build and runtime
// details keyed by name.
type SystemInfo map[string]string

// DeltaChat is the account manager: the entry point of the typed layer.
type DeltaChat struct {
	rpc Caller
}

// New returns a DeltaChat using rpc.
func New(rpc Caller) DeltaChat {
	return DeltaChat{rpc: rpc}
}

// SystemInfo returns details about the running core.
func (dc DeltaChat) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := dc.rpc.CallInto(ctx, &info, "get_system_info"); err != nil {
		return nil, err
	}
	return info, nil
}

// Accounts returns all accounts in the accounts directory.
func (dc DeltaChat) Accounts(ctx context.Context) ([]Account, error) {
	var ids []int64
	if err := dc.rpc.CallInto(ctx, &ids, "get_all_account_ids"); err != nil {
		return nil, err
	}
	accounts := make([]Account, len(ids))
	for i, id := range ids {
		accounts[i] = dc.AccountByID(id)
	}
	return accounts, nil
}

// AddAccount creates a new, unconfigured account.
func (dc DeltaChat) AddAccount(ctx context.Context) (Account, error) {
	var id int64
	if err := dc.rpc.CallInto(ctx, &id, "add_account"); err != nil {
		return Account{}, err
	}
	return dc.AccountByID(id), nil
}

// AccountByID returns the account with the given id. No request is made.
func (dc DeltaChat) AccountByID(id int64) Account {
	return Account{rpc: dc.rpc, ID: id}
}

// StartIO starts network activity for all configured accounts.
func (dc DeltaChat) StartIO(ctx context.Context) error {
	_, err := dc.rpc.Call(ctx, "start_io_for_all_accounts")
	return err
}

// StopIO stops network activity for all accounts.
func (dc DeltaChat) StopIO(ctx context.Context) error {
	_, err := dc.rpc.Call(ctx, "stop_io_for_all_accounts")
	return err
}

// SetTranslations replaces the core's built-in strings, keyed by stock
// string id.
func (dc DeltaChat) SetTranslations(ctx context.Context, translations map[string]string) error {
	_, err := dc.rpc.Call(ctx, "set_stock_strings", translations)
	return err
}
