package deltachat

import (
	"context"
	"fmt"
	"time"
)

// eventPollInterval is how often WaitForEventKind retries while the
// account has no event queue yet.
const eventPollInterval = 50 * time.Millisecond

// Account is one Delta Chat account (a "context" in core terms).
type Account struct {
	rpc Caller
	ID  int64
}

func (a Account) String() string {
	return fmt.Sprintf("Account(%d)", a.ID)
}

// AccountInfo is the result of get_account_info.
type AccountInfo struct {
	Kind         string `json:"kind"` // "Configured" or "Unconfigured"
	ID           int64  `json:"id"`
	Addr         string `json:"addr,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	Color        string `json:"color,omitempty"`
}

// ContactQuery filters Contacts.
type ContactQuery struct {
	Query        string
	WithSelf     bool
	VerifiedOnly bool
}

// WaitForEvent returns the account's next event, waiting while none is
// buffered. It returns (nil, nil) if the account has never received an
// event.
func (a Account) WaitForEvent(ctx context.Context) (*Event, error) {
	raw, err := a.rpc.WaitForEvent(ctx, a.ID)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeEvent(raw)
}

// WaitForEventKind discards events until one of the given kinds arrives
// and returns it.
func (a Account) WaitForEventKind(ctx context.Context, kinds ...EventType) (*Event, error) {
	for {
		ev, err := a.WaitForEvent(ctx)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(eventPollInterval):
			}
			continue
		}
		for _, k := range kinds {
			if ev.Kind == k {
				return ev, nil
			}
		}
	}
}

// Info returns the account's configuration state and identity.
func (a Account) Info(ctx context.Context) (AccountInfo, error) {
	var info AccountInfo
	err := a.rpc.CallInto(ctx, &info, "get_account_info", a.ID)
	return info, err
}

// Remove deletes the account and its data.
func (a Account) Remove(ctx context.Context) error {
	_, err := a.rpc.Call(ctx, "remove_account", a.ID)
	return err
}

// Config returns a configuration value. Unset keys return "".
func (a Account) Config(ctx context.Context, key string) (string, error) {
	var value *string
	if err := a.rpc.CallInto(ctx, &value, "get_config", a.ID, key); err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// SetConfig sets a configuration value.
func (a Account) SetConfig(ctx context.Context, key, value string) error {
	_, err := a.rpc.Call(ctx, "set_config", a.ID, key, value)
	return err
}

// ResetConfig unsets a configuration value, restoring its default.
func (a Account) ResetConfig(ctx context.Context, key string) error {
	_, err := a.rpc.Call(ctx, "set_config", a.ID, key, nil)
	return err
}

// SetConfigs sets several configuration values in one request.
func (a Account) SetConfigs(ctx context.Context, values map[string]string) error {
	_, err := a.rpc.Call(ctx, "batch_set_config", a.ID, values)
	return err
}

// IsConfigured reports whether the account has working credentials.
func (a Account) IsConfigured(ctx context.Context) (bool, error) {
	var ok bool
	err := a.rpc.CallInto(ctx, &ok, "is_configured", a.ID)
	return ok, err
}

// Configure logs in with the configured credentials. It returns once
// configuration has finished or failed.
func (a Account) Configure(ctx context.Context) error {
	_, err := a.rpc.Call(ctx, "configure", a.ID)
	return err
}

// StartIO starts the account's network activity.
func (a Account) StartIO(ctx context.Context) error {
	_, err := a.rpc.Call(ctx, "start_io", a.ID)
	return err
}

// StopIO stops the account's network activity.
func (a Account) StopIO(ctx context.Context) error {
	_, err := a.rpc.Call(ctx, "stop_io", a.ID)
	return err
}

// NextMessages returns messages that arrived since the last call.
func (a Account) NextMessages(ctx context.Context) ([]Message, error) {
	return a.messages(ctx, "get_next_msgs")
}

// WaitNextMessages is NextMessages, but waits until at least one message
// is available.
func (a Account) WaitNextMessages(ctx context.Context) ([]Message, error) {
	return a.messages(ctx, "wait_next_msgs")
}

func (a Account) messages(ctx context.Context, method string) ([]Message, error) {
	var ids []int64
	if err := a.rpc.CallInto(ctx, &ids, method, a.ID); err != nil {
		return nil, err
	}
	return a.messagesByID(ids), nil
}

func (a Account) messagesByID(ids []int64) []Message {
	msgs := make([]Message, len(ids))
	for i, id := range ids {
		msgs[i] = a.MessageByID(id)
	}
	return msgs
}

// CreateContact creates a contact, or returns the existing one for addr.
func (a Account) CreateContact(ctx context.Context, addr, name string) (Contact, error) {
	var id int64
	if err := a.rpc.CallInto(ctx, &id, "create_contact", a.ID, addr, name); err != nil {
		return Contact{}, err
	}
	return a.ContactByID(id), nil
}

// ContactByID returns the contact with the given id. No request is made.
func (a Account) ContactByID(id int64) Contact {
	return Contact{Account: a, ID: id}
}

// ContactByAddr looks up a contact by e-mail address. ok is false when
// there is none.
func (a Account) ContactByAddr(ctx context.Context, addr string) (c Contact, ok bool, err error) {
	var id *int64
	if err := a.rpc.CallInto(ctx, &id, "lookup_contact_id_by_addr", a.ID, addr); err != nil {
		return Contact{}, false, err
	}
	if id == nil {
		return Contact{}, false, nil
	}
	return a.ContactByID(*id), true, nil
}

// Contacts lists the account's contacts.
func (a Account) Contacts(ctx context.Context, q ContactQuery) ([]Contact, error) {
	flags := 0
	if q.VerifiedOnly {
		flags |= contactFlagVerifiedOnly
	}
	if q.WithSelf {
		flags |= contactFlagAddSelf
	}
	var query any
	if q.Query != "" {
		query = q.Query
	}
	var ids []int64
	if err := a.rpc.CallInto(ctx, &ids, "get_contact_ids", a.ID, flags, query); err != nil {
		return nil, err
	}
	contacts := make([]Contact, len(ids))
	for i, id := range ids {
		contacts[i] = a.ContactByID(id)
	}
	return contacts, nil
}

// ChatByID returns the chat with the given id. No request is made.
func (a Account) ChatByID(id int64) Chat {
	return Chat{Account: a, ID: id}
}

// MessageByID returns the message with the given id. No request is made.
func (a Account) MessageByID(id int64) Message {
	return Message{Account: a, ID: id}
}

// CreateGroup creates a group chat. A protected group only admits
// verified members.
func (a Account) CreateGroup(ctx context.Context, name string, protect bool) (Chat, error) {
	var id int64
	if err := a.rpc.CallInto(ctx, &id, "create_group_chat", a.ID, name, protect); err != nil {
		return Chat{}, err
	}
	return a.ChatByID(id), nil
}

// MarkSeen marks messages as seen, sending read receipts where enabled.
func (a Account) MarkSeen(ctx context.Context, msgs ...Message) error {
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	_, err := a.rpc.Call(ctx, "markseen_msgs", a.ID, ids)
	return err
}
