package deltachat

import (
	"context"
	"fmt"
)

// Chat is a 1:1 chat, group or broadcast of an account.
type Chat struct {
	Account Account
	ID      int64
}

func (c Chat) String() string {
	return fmt.Sprintf("Chat(%d, account=%d)", c.ID, c.Account.ID)
}

// ChatSnapshot holds a chat's properties at the time of the request.
type ChatSnapshot struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	ChatType            ChatType `json:"chatType"`
	IsProtected         bool     `json:"isProtected"`
	IsUnpromoted        bool     `json:"isUnpromoted"`
	IsSelfTalk          bool     `json:"isSelfTalk"`
	IsDeviceChat        bool     `json:"isDeviceChat"`
	IsContactRequest    bool     `json:"isContactRequest"`
	IsMuted             bool     `json:"isMuted"`
	Archived            bool     `json:"archived"`
	CanSend             bool     `json:"canSend"`
	SelfInGroup         bool     `json:"selfInGroup"`
	ContactIDs          []int64  `json:"contactIds"`
	FreshMessageCounter int      `json:"freshMessageCounter"`
	EphemeralTimer      int      `json:"ephemeralTimer"`
	Color               string   `json:"color"`
	ProfileImage        string   `json:"profileImage,omitempty"`
	MailingListAddress  string   `json:"mailingListAddress,omitempty"`

	Chat Chat `json:"-"`
}

// Contacts returns the chat's members as typed contacts.
func (s *ChatSnapshot) Contacts() []Contact {
	contacts := make([]Contact, len(s.ContactIDs))
	for i, id := range s.ContactIDs {
		contacts[i] = s.Chat.Account.ContactByID(id)
	}
	return contacts
}

// MessageData is an outgoing message for Chat.SendMessage.
type MessageData struct {
	Text               string   `json:"text,omitempty"`
	HTML               string   `json:"html,omitempty"`
	ViewType           ViewType `json:"viewtype,omitempty"`
	File               string   `json:"file,omitempty"`
	OverrideSenderName string   `json:"overrideSenderName,omitempty"`
	QuotedMessageID    int64    `json:"quotedMessageId,omitempty"`
}

// SendText sends a plain text message.
func (c Chat) SendText(ctx context.Context, text string) (Message, error) {
	var id int64
	if err := c.Account.rpc.CallInto(ctx, &id, "misc_send_text_message", c.Account.ID, c.ID, text); err != nil {
		return Message{}, err
	}
	return c.Account.MessageByID(id), nil
}

// SendMessage sends a message built from data.
func (c Chat) SendMessage(ctx context.Context, data MessageData) (Message, error) {
	var id int64
	if err := c.Account.rpc.CallInto(ctx, &id, "send_msg", c.Account.ID, c.ID, data); err != nil {
		return Message{}, err
	}
	return c.Account.MessageByID(id), nil
}

// Snapshot fetches the chat's current properties.
func (c Chat) Snapshot(ctx context.Context) (*ChatSnapshot, error) {
	var snap ChatSnapshot
	if err := c.Account.rpc.CallInto(ctx, &snap, "get_full_chat_by_id", c.Account.ID, c.ID); err != nil {
		return nil, err
	}
	snap.Chat = c
	return &snap, nil
}

// Delete deletes the chat and its messages on this device.
func (c Chat) Delete(ctx context.Context) error {
	_, err := c.Account.rpc.Call(ctx, "delete_chat", c.Account.ID, c.ID)
	return err
}

// AddContact adds a member to a group chat.
func (c Chat) AddContact(ctx context.Context, contact Contact) error {
	_, err := c.Account.rpc.Call(ctx, "add_contact_to_chat", c.Account.ID, c.ID, contact.ID)
	return err
}

// Messages returns the chat's messages, oldest first. Info messages are
// included.
func (c Chat) Messages(ctx context.Context) ([]Message, error) {
	var ids []int64
	if err := c.Account.rpc.CallInto(ctx, &ids, "get_message_ids", c.Account.ID, c.ID, false, false); err != nil {
		return nil, err
	}
	return c.Account.messagesByID(ids), nil
}
