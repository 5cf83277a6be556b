package signal

import "encoding/base64"

// User identifies a party on the wire. At least one of Number/UUID is set
// for any message that made it through Parse.
type User struct {
	Name   string
	Number string
	UUID   string
}

// Message is the decoded form of one inbound envelope. Exactly one of the
// payload pointers is non-nil; if all are nil the payload was unrecognized
// and Unknown() reports true.
type Message struct {
	Source          User
	Timestamp       int64
	ServerReceived  int64
	ServerDelivered int64

	Data    *DataPayload
	Sync    *DataPayload
	Receipt *ReceiptPayload
	Typing  *TypingPayload
}

// Unknown reports whether the envelope carried no recognized payload.
func (m *Message) Unknown() bool {
	return m.Data == nil && m.Sync == nil && m.Receipt == nil && m.Typing == nil
}

// payload returns the data payload regardless of whether it arrived as a
// dataMessage or wrapped in a syncMessage.
func (m *Message) payload() *DataPayload {
	if m.Data != nil {
		return m.Data
	}
	return m.Sync
}

// GroupInfo returns the group info of a data/sync payload, or nil.
func (m *Message) GroupInfo() *GroupInfo {
	if p := m.payload(); p != nil {
		return p.GroupInfo
	}
	return nil
}

// Text returns the message body, or "" for non-data payloads.
func (m *Message) Text() string {
	if p := m.payload(); p != nil {
		return p.Text
	}
	return ""
}

// IsGroup reports whether the message was sent in a group chat.
func (m *Message) IsGroup() bool {
	return m.GroupInfo() != nil
}

// IsPrivate reports whether the message is a direct chat message.
func (m *Message) IsPrivate() bool {
	return m.payload() != nil && m.GroupInfo() == nil
}

// Recipient returns the canonical address to respond to: the group's public
// id for group messages, otherwise the sender. Needs no directory lookup.
func (m *Message) Recipient() string {
	if gi := m.GroupInfo(); gi != nil {
		return gi.PublicID()
	}
	if m.Source.UUID != "" {
		return m.Source.UUID
	}
	return m.Source.Number
}

// DataPayload is the content of a dataMessage, or of the sentMessage inside
// a syncMessage.
type DataPayload struct {
	Text             string
	ExpiresInSeconds int64
	ViewOnce         bool
	Attachments      []Attachment
	Reaction         *Reaction
	Quote            *Quote
	GroupInfo        *GroupInfo
	Mentions         []Mention
	RemoteDelete     *RemoteDelete
}

// groupIDPrefix starts every shareable group address.
const groupIDPrefix = "group."

// GroupInfo describes the group a data payload was sent in. ID is the
// backend-internal group id; Revision counts group edits.
type GroupInfo struct {
	ID       string
	Name     string
	Revision int64
	Type     string
}

// PublicID derives the shareable group address from the internal id.
func (g *GroupInfo) PublicID() string {
	return groupIDPrefix + base64.StdEncoding.EncodeToString([]byte(g.ID))
}

// Attachment metadata. The payload bytes themselves stay on the backend
// until fetched by id.
type Attachment struct {
	ContentType     string
	Filename        string
	ID              string
	Size            int64
	Width           int64
	Height          int64
	Caption         string
	UploadTimestamp int64
	Thumbnail       *Attachment
}

// Quote references the message being replied to.
type Quote struct {
	ID     int64
	Author User
	Text   string
}

// Reaction is an emoji reaction to an earlier message, identified by
// (target author, timestamp).
type Reaction struct {
	Emoji           string
	Target          User
	TargetTimestamp int64
	IsRemove        bool
}

// Mention marks a user reference inside the message text.
type Mention struct {
	Target User
	Start  int64
	Length int64
}

// RemoteDelete asks to remove an earlier message, identified by timestamp.
type RemoteDelete struct {
	Timestamp int64
}

// ReceiptPayload is a delivery/read/viewed receipt for earlier messages.
type ReceiptPayload struct {
	When       int64
	IsDelivery bool
	IsRead     bool
	IsViewed   bool
	Timestamps []int64
}

// TypingPayload signals typing started/stopped, optionally inside a group.
type TypingPayload struct {
	Action    string
	Timestamp int64
	GroupID   string
}
