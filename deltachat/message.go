package deltachat

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is a message of an account.
type Message struct {
	Account Account
	ID      int64
}

func (m Message) String() string {
	return fmt.Sprintf("Message(%d, account=%d)", m.ID, m.Account.ID)
}

// MessageSnapshot holds a message's properties at the time of the request.
// Chat, Sender and Message are filled in from the ids.
type MessageSnapshot struct {
	ID                 int64    `json:"id"`
	ChatID             int64    `json:"chatId"`
	FromID             int64    `json:"fromId"`
	Text               string   `json:"text"`
	Subject            string   `json:"subject"`
	ViewType           ViewType `json:"viewType"`
	State              int      `json:"state"`
	Timestamp          int64    `json:"timestamp"`
	SortTimestamp      int64    `json:"sortTimestamp"`
	ReceivedTimestamp  int64    `json:"receivedTimestamp"`
	HasHTML            bool     `json:"hasHtml"`
	IsInfo             bool     `json:"isInfo"`
	IsBot              bool     `json:"isBot"`
	IsForwarded        bool     `json:"isForwarded"`
	ShowPadlock        bool     `json:"showPadlock"`
	File               string   `json:"file,omitempty"`
	FileName           string   `json:"fileName,omitempty"`
	FileMime           string   `json:"fileMime,omitempty"`
	FileBytes          int64    `json:"fileBytes,omitempty"`
	OverrideSenderName string   `json:"overrideSenderName,omitempty"`
	Error              string   `json:"error,omitempty"`

	Chat    Chat    `json:"-"`
	Sender  Contact `json:"-"`
	Message Message `json:"-"`
}

// IsFromSelf reports whether the account itself sent the message.
func (s *MessageSnapshot) IsFromSelf() bool {
	return s.FromID == ContactSelf
}

// WebxdcInfo describes a webxdc app message.
type WebxdcInfo struct {
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	Document       string `json:"document,omitempty"`
	Summary        string `json:"summary,omitempty"`
	SourceCodeURL  string `json:"sourceCodeUrl,omitempty"`
	InternetAccess bool   `json:"internetAccess"`
}

// SendReaction replaces the account's reaction to the message. No
// reactions removes it.
func (m Message) SendReaction(ctx context.Context, reactions ...string) error {
	if reactions == nil {
		reactions = []string{}
	}
	_, err := m.Account.rpc.Call(ctx, "send_reaction", m.Account.ID, m.ID, reactions)
	return err
}

// Snapshot fetches the message's current properties.
func (m Message) Snapshot(ctx context.Context) (*MessageSnapshot, error) {
	var snap MessageSnapshot
	if err := m.Account.rpc.CallInto(ctx, &snap, "get_message", m.Account.ID, m.ID); err != nil {
		return nil, err
	}
	snap.Chat = m.Account.ChatByID(snap.ChatID)
	snap.Sender = m.Account.ContactByID(snap.FromID)
	snap.Message = m
	return &snap, nil
}

// MarkSeen marks the message as seen.
func (m Message) MarkSeen(ctx context.Context) error {
	return m.Account.MarkSeen(ctx, m)
}

// SendWebxdcStatusUpdate sends a status update to a webxdc message. update
// is encoded as JSON unless it is already a string or json.RawMessage.
func (m Message) SendWebxdcStatusUpdate(ctx context.Context, update any, description string) error {
	var payload string
	switch u := update.(type) {
	case string:
		payload = u
	case json.RawMessage:
		payload = string(u)
	default:
		data, err := json.Marshal(update)
		if err != nil {
			return fmt.Errorf("deltachat: encode webxdc update: %w", err)
		}
		payload = string(data)
	}
	_, err := m.Account.rpc.Call(ctx, "send_webxdc_status_update", m.Account.ID, m.ID, payload, description)
	return err
}

// WebxdcStatusUpdates returns the updates with a serial above
// lastKnownSerial.
func (m Message) WebxdcStatusUpdates(ctx context.Context, lastKnownSerial int64) ([]json.RawMessage, error) {
	// The server returns the update list as a JSON-encoded string.
	var encoded string
	if err := m.Account.rpc.CallInto(ctx, &encoded, "get_webxdc_status_updates", m.Account.ID, m.ID, lastKnownSerial); err != nil {
		return nil, err
	}
	var updates []json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &updates); err != nil {
		return nil, fmt.Errorf("deltachat: decode webxdc updates: %w", err)
	}
	return updates, nil
}

// WebxdcInfo returns the app description of a webxdc message.
func (m Message) WebxdcInfo(ctx context.Context) (*WebxdcInfo, error) {
	var info WebxdcInfo
	if err := m.Account.rpc.CallInto(ctx, &info, "get_webxdc_info", m.Account.ID, m.ID); err != nil {
		return nil, err
	}
	return &info, nil
}
