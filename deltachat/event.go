package deltachat

import (
	"encoding/json"
	"fmt"
)

// EventType is the "kind" of a core event.
type EventType string

// Event kinds emitted by the core.
const (
	EventInfo                       EventType = "Info"
	EventSMTPConnected              EventType = "SmtpConnected"
	EventIMAPConnected              EventType = "ImapConnected"
	EventSMTPMessageSent            EventType = "SmtpMessageSent"
	EventIMAPMessageDeleted         EventType = "ImapMessageDeleted"
	EventIMAPMessageMoved           EventType = "ImapMessageMoved"
	EventIMAPInboxIdle              EventType = "ImapInboxIdle"
	EventNewBlobFile                EventType = "NewBlobFile"
	EventDeletedBlobFile            EventType = "DeletedBlobFile"
	EventWarning                    EventType = "Warning"
	EventError                      EventType = "Error"
	EventErrorSelfNotInGroup        EventType = "ErrorSelfNotInGroup"
	EventMsgsChanged                EventType = "MsgsChanged"
	EventReactionsChanged           EventType = "ReactionsChanged"
	EventIncomingMsg                EventType = "IncomingMsg"
	EventIncomingMsgBunch           EventType = "IncomingMsgBunch"
	EventMsgsNoticed                EventType = "MsgsNoticed"
	EventMsgDelivered               EventType = "MsgDelivered"
	EventMsgFailed                  EventType = "MsgFailed"
	EventMsgRead                    EventType = "MsgRead"
	EventChatModified               EventType = "ChatModified"
	EventChatEphemeralTimerModified EventType = "ChatEphemeralTimerModified"
	EventContactsChanged            EventType = "ContactsChanged"
	EventLocationChanged            EventType = "LocationChanged"
	EventConfigureProgress          EventType = "ConfigureProgress"
	EventImexProgress               EventType = "ImexProgress"
	EventImexFileWritten            EventType = "ImexFileWritten"
	EventSecurejoinInviterProgress  EventType = "SecurejoinInviterProgress"
	EventSecurejoinJoinerProgress   EventType = "SecurejoinJoinerProgress"
	EventConnectivityChanged        EventType = "ConnectivityChanged"
	EventSelfavatarChanged          EventType = "SelfavatarChanged"
	EventWebxdcStatusUpdate         EventType = "WebxdcStatusUpdate"
	EventWebxdcInstanceDeleted      EventType = "WebxdcInstanceDeleted"
	EventAccountsChanged            EventType = "AccountsChanged"
	EventAccountsItemChanged        EventType = "AccountsItemChanged"
)

// Event is a decoded core event. Fields not used by an event kind are
// zero; Raw always holds the event object as received.
type Event struct {
	Kind      EventType `json:"kind"`
	Msg       string    `json:"msg,omitempty"`
	ChatID    int64     `json:"chatId,omitempty"`
	MsgID     int64     `json:"msgId,omitempty"`
	ContactID int64     `json:"contactId,omitempty"`
	Progress  int       `json:"progress,omitempty"`
	Comment   string    `json:"comment,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// decodeEvent decodes one event object.
func decodeEvent(raw json.RawMessage) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("deltachat: decode event: %w", err)
	}
	ev.Raw = raw
	return &ev, nil
}
