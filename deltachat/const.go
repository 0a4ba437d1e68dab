package deltachat

// SpecialContactID is a contact id reserved by the core.
type SpecialContactID = int64

// Reserved contact ids.
const (
	ContactSelf        SpecialContactID = 1
	ContactInfo        SpecialContactID = 2
	ContactDevice      SpecialContactID = 5
	ContactLastSpecial SpecialContactID = 9
)

// Contact list flags for get_contact_ids.
const (
	contactFlagVerifiedOnly = 1 << 0
	contactFlagAddSelf      = 1 << 1
)

// ViewType is the kind of content a message carries.
type ViewType string

// Message view types.
const (
	ViewText    ViewType = "Text"
	ViewImage   ViewType = "Image"
	ViewGif     ViewType = "Gif"
	ViewSticker ViewType = "Sticker"
	ViewAudio   ViewType = "Audio"
	ViewVoice   ViewType = "Voice"
	ViewVideo   ViewType = "Video"
	ViewFile    ViewType = "File"
	ViewWebxdc  ViewType = "Webxdc"
	ViewVcard   ViewType = "Vcard"
)

// ChatType distinguishes 1:1 chats, groups and broadcasts.
type ChatType int

// Chat types.
const (
	ChatSingle      ChatType = 100
	ChatGroup       ChatType = 120
	ChatMailinglist ChatType = 140
	ChatBroadcast   ChatType = 160
)
