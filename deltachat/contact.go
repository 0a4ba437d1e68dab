package deltachat

import (
	"context"
	"fmt"
)

// Contact is a contact of an account.
type Contact struct {
	Account Account
	ID      int64
}

func (c Contact) String() string {
	return fmt.Sprintf("Contact(%d, account=%d)", c.ID, c.Account.ID)
}

// ContactSnapshot holds a contact's properties at the time of the request.
type ContactSnapshot struct {
	ID              int64  `json:"id"`
	Address         string `json:"address"`
	Name            string `json:"name"`
	AuthName        string `json:"authName"`
	DisplayName     string `json:"displayName"`
	NameAndAddr     string `json:"nameAndAddr"`
	Status          string `json:"status"`
	Color           string `json:"color"`
	ProfileImage    string `json:"profileImage,omitempty"`
	IsBlocked       bool   `json:"isBlocked"`
	IsVerified      bool   `json:"isVerified"`
	IsBot           bool   `json:"isBot"`
	WasSeenRecently bool   `json:"wasSeenRecently"`

	Contact Contact `json:"-"`
}

// Block blocks the contact.
func (c Contact) Block(ctx context.Context) error {
	_, err := c.Account.rpc.Call(ctx, "block_contact", c.Account.ID, c.ID)
	return err
}

// Unblock unblocks the contact.
func (c Contact) Unblock(ctx context.Context) error {
	_, err := c.Account.rpc.Call(ctx, "unblock_contact", c.Account.ID, c.ID)
	return err
}

// Delete deletes the contact.
func (c Contact) Delete(ctx context.Context) error {
	_, err := c.Account.rpc.Call(ctx, "delete_contact", c.Account.ID, c.ID)
	return err
}

// SetName changes the name the account knows the contact by.
func (c Contact) SetName(ctx context.Context, name string) error {
	_, err := c.Account.rpc.Call(ctx, "change_contact_name", c.Account.ID, c.ID, name)
	return err
}

// EncryptionInfo returns a multi-line description of the encryption state
// between the account and the contact, including both fingerprints.
func (c Contact) EncryptionInfo(ctx context.Context) (string, error) {
	var info string
	err := c.Account.rpc.CallInto(ctx, &info, "get_contact_encryption_info", c.Account.ID, c.ID)
	return info, err
}

// Snapshot fetches the contact's current properties.
func (c Contact) Snapshot(ctx context.Context) (*ContactSnapshot, error) {
	var snap ContactSnapshot
	if err := c.Account.rpc.CallInto(ctx, &snap, "get_contact", c.Account.ID, c.ID); err != nil {
		return nil, err
	}
	snap.Contact = c
	return &snap, nil
}

// CreateChat returns the 1:1 chat with the contact, creating it if needed.
func (c Contact) CreateChat(ctx context.Context) (Chat, error) {
	var id int64
	if err := c.Account.rpc.CallInto(ctx, &id, "create_chat_by_contact_id", c.Account.ID, c.ID); err != nil {
		return Chat{}, err
	}
	return c.Account.ChatByID(id), nil
}
