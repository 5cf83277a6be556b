package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseErrorKind distinguishes structurally broken envelopes from envelopes
// with a bad value in a single field.
type ParseErrorKind int

const (
	// Malformed means the payload could not be decoded at all, or is
	// missing the source identity / timestamp every envelope must carry.
	Malformed ParseErrorKind = iota
	// InvalidField means a declared-numeric field held a non-numeric
	// value, or a field otherwise had the wrong type.
	InvalidField
)

// ParseError reports why an inbound envelope was rejected. Callers drop the
// message and keep consuming the stream.
type ParseError struct {
	Kind  ParseErrorKind
	Field string
	cause error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case InvalidField:
		return fmt.Sprintf("invalid field %q: %v", e.Field, e.cause)
	default:
		if e.cause != nil {
			return fmt.Sprintf("malformed envelope: %v", e.cause)
		}
		return "malformed envelope"
	}
}

func (e *ParseError) Unwrap() error { return e.cause }

// The wire schema. The json tags are the one authoritative mapping between
// domain fields and wire keys; Parse and EncodeEnvelope both go through
// these structs, so gathering and flattening stay symmetric. Note the
// sender's name/number/uuid arrive as sibling keys on the envelope
// (sourceName/sourceNumber/sourceUuid), not as a nested object.

type wireMessage struct {
	Envelope *wireEnvelope `json:"envelope"`
}

type wireEnvelope struct {
	Source          string `json:"source,omitempty"`
	SourceName      string `json:"sourceName,omitempty"`
	SourceNumber    string `json:"sourceNumber,omitempty"`
	SourceUUID      string `json:"sourceUuid,omitempty"`
	SourceDevice    int64  `json:"sourceDevice,omitempty"`
	Timestamp       int64  `json:"timestamp,omitempty"`
	ServerReceived  int64  `json:"serverReceivedTimestamp,omitempty"`
	ServerDelivered int64  `json:"serverDeliveredTimestamp,omitempty"`

	SyncMessage    *wireSync    `json:"syncMessage,omitempty"`
	DataMessage    *wireData    `json:"dataMessage,omitempty"`
	ReceiptMessage *wireReceipt `json:"receiptMessage,omitempty"`
	TypingMessage  *wireTyping  `json:"typingMessage,omitempty"`
}

type wireSync struct {
	SentMessage *wireData `json:"sentMessage,omitempty"`
}

type wireData struct {
	Timestamp        int64             `json:"timestamp,omitempty"`
	Message          string            `json:"message,omitempty"`
	ExpiresInSeconds int64             `json:"expiresInSeconds,omitempty"`
	ViewOnce         bool              `json:"viewOnce,omitempty"`
	Attachments      []wireAttachment  `json:"attachments,omitempty"`
	Reaction         *wireReaction     `json:"reaction,omitempty"`
	Quote            *wireQuote        `json:"quote,omitempty"`
	GroupInfo        *wireGroupInfo    `json:"groupInfo,omitempty"`
	Mentions         []wireMention     `json:"mentions,omitempty"`
	RemoteDelete     *wireRemoteDelete `json:"remoteDelete,omitempty"`
}

type wireGroupInfo struct {
	GroupID   string `json:"groupId,omitempty"`
	GroupName string `json:"groupName,omitempty"`
	Revision  int64  `json:"revision,omitempty"`
	Type      string `json:"type,omitempty"`
}

type wireAttachment struct {
	ContentType     string          `json:"contentType,omitempty"`
	Filename        string          `json:"filename,omitempty"`
	ID              string          `json:"id,omitempty"`
	Size            int64           `json:"size,omitempty"`
	Width           int64           `json:"width,omitempty"`
	Height          int64           `json:"height,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	UploadTimestamp int64           `json:"uploadTimestamp,omitempty"`
	Thumbnail       *wireAttachment `json:"thumbnail,omitempty"`
}

type wireQuote struct {
	ID           int64  `json:"id,omitempty"`
	AuthorName   string `json:"authorName,omitempty"`
	AuthorNumber string `json:"authorNumber,omitempty"`
	AuthorUUID   string `json:"authorUuid,omitempty"`
	Text         string `json:"text,omitempty"`
}

type wireReaction struct {
	Emoji            string `json:"emoji,omitempty"`
	TargetAuthorName string `json:"targetAuthor,omitempty"`
	TargetNumber     string `json:"targetAuthorNumber,omitempty"`
	TargetUUID       string `json:"targetAuthorUuid,omitempty"`
	TargetTimestamp  int64  `json:"targetSentTimestamp,omitempty"`
	IsRemove         bool   `json:"isRemove,omitempty"`
}

type wireMention struct {
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
	UUID   string `json:"uuid,omitempty"`
	Start  int64  `json:"start,omitempty"`
	Length int64  `json:"length,omitempty"`
}

type wireRemoteDelete struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

type wireReceipt struct {
	When       int64   `json:"when,omitempty"`
	IsDelivery bool    `json:"isDelivery,omitempty"`
	IsRead     bool    `json:"isRead,omitempty"`
	IsViewed   bool    `json:"isViewed,omitempty"`
	Timestamps []int64 `json:"timestamps,omitempty"`
}

type wireTyping struct {
	Action    string `json:"action,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
}

// Parse decodes one raw envelope into a Message. Unrecognized payloads
// produce a Message with Unknown() true rather than an error; structural
// problems produce a *ParseError. Pure function, no I/O.
func Parse(raw []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		// a wrong-typed envelope itself is a structural problem, not a
		// bad field inside one
		if errors.As(err, &typeErr) && typeErr.Field != "" && typeErr.Field != "envelope" {
			return nil, &ParseError{Kind: InvalidField, Field: leafField(typeErr.Field), cause: err}
		}
		return nil, &ParseError{Kind: Malformed, cause: err}
	}

	env := w.Envelope
	if env == nil {
		return nil, &ParseError{Kind: Malformed, cause: errors.New("missing envelope")}
	}

	msg := &Message{
		Source:          env.sourceUser(),
		Timestamp:       env.Timestamp,
		ServerReceived:  env.ServerReceived,
		ServerDelivered: env.ServerDelivered,
	}
	if (msg.Source.Number == "" && msg.Source.UUID == "") || msg.Timestamp == 0 {
		return nil, &ParseError{Kind: Malformed, cause: errors.New("missing source identity or timestamp")}
	}

	// Payload branch, in fixed priority order.
	switch {
	case env.SyncMessage != nil && env.SyncMessage.SentMessage != nil:
		msg.Sync = env.SyncMessage.SentMessage.payload()
	case env.DataMessage != nil:
		msg.Data = env.DataMessage.payload()
	case env.ReceiptMessage != nil:
		msg.Receipt = env.ReceiptMessage.payload()
	case env.TypingMessage != nil:
		msg.Typing = env.TypingMessage.payload()
	}
	return msg, nil
}

// EncodeEnvelope is the inverse of Parse: it flattens a Message back onto
// the wire schema. Used by the mock transport and round-trip tests.
func EncodeEnvelope(m *Message) ([]byte, error) {
	env := &wireEnvelope{
		Source:          m.Source.Number,
		SourceName:      m.Source.Name,
		SourceNumber:    m.Source.Number,
		SourceUUID:      m.Source.UUID,
		Timestamp:       m.Timestamp,
		ServerReceived:  m.ServerReceived,
		ServerDelivered: m.ServerDelivered,
	}
	switch {
	case m.Sync != nil:
		env.SyncMessage = &wireSync{SentMessage: wireDataFrom(m.Sync)}
	case m.Data != nil:
		env.DataMessage = wireDataFrom(m.Data)
	case m.Receipt != nil:
		env.ReceiptMessage = &wireReceipt{
			When:       m.Receipt.When,
			IsDelivery: m.Receipt.IsDelivery,
			IsRead:     m.Receipt.IsRead,
			IsViewed:   m.Receipt.IsViewed,
			Timestamps: m.Receipt.Timestamps,
		}
	case m.Typing != nil:
		env.TypingMessage = &wireTyping{
			Action:    m.Typing.Action,
			Timestamp: m.Typing.Timestamp,
			GroupID:   m.Typing.GroupID,
		}
	}
	return json.Marshal(&wireMessage{Envelope: env})
}

// leafField strips the dotted path a json type error carries down to the
// offending key.
func leafField(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// sourceUser gathers the sender's sibling keys into a User. Old envelopes
// carry only the legacy source key; it stands in for whichever identity
// shape it looks like.
func (e *wireEnvelope) sourceUser() User {
	u := User{
		Name:   e.SourceName,
		Number: e.SourceNumber,
		UUID:   e.SourceUUID,
	}
	if u.Number == "" && u.UUID == "" && e.Source != "" {
		if strings.HasPrefix(e.Source, "+") {
			u.Number = e.Source
		} else {
			u.UUID = e.Source
		}
	}
	return u
}

func (d *wireData) payload() *DataPayload {
	p := &DataPayload{
		Text:             d.Message,
		ExpiresInSeconds: d.ExpiresInSeconds,
		ViewOnce:         d.ViewOnce,
	}
	for _, a := range d.Attachments {
		p.Attachments = append(p.Attachments, a.attachment())
	}
	if d.Reaction != nil {
		p.Reaction = &Reaction{
			Emoji: d.Reaction.Emoji,
			Target: User{
				Name:   d.Reaction.TargetAuthorName,
				Number: d.Reaction.TargetNumber,
				UUID:   d.Reaction.TargetUUID,
			},
			TargetTimestamp: d.Reaction.TargetTimestamp,
			IsRemove:        d.Reaction.IsRemove,
		}
	}
	if d.Quote != nil {
		p.Quote = &Quote{
			ID: d.Quote.ID,
			Author: User{
				Name:   d.Quote.AuthorName,
				Number: d.Quote.AuthorNumber,
				UUID:   d.Quote.AuthorUUID,
			},
			Text: d.Quote.Text,
		}
	}
	if d.GroupInfo != nil {
		p.GroupInfo = &GroupInfo{
			ID:       d.GroupInfo.GroupID,
			Name:     d.GroupInfo.GroupName,
			Revision: d.GroupInfo.Revision,
			Type:     d.GroupInfo.Type,
		}
	}
	for _, m := range d.Mentions {
		p.Mentions = append(p.Mentions, Mention{
			Target: User{Name: m.Name, Number: m.Number, UUID: m.UUID},
			Start:  m.Start,
			Length: m.Length,
		})
	}
	if d.RemoteDelete != nil {
		p.RemoteDelete = &RemoteDelete{Timestamp: d.RemoteDelete.Timestamp}
	}
	return p
}

func (a *wireAttachment) attachment() Attachment {
	att := Attachment{
		ContentType:     a.ContentType,
		Filename:        a.Filename,
		ID:              a.ID,
		Size:            a.Size,
		Width:           a.Width,
		Height:          a.Height,
		Caption:         a.Caption,
		UploadTimestamp: a.UploadTimestamp,
	}
	if a.Thumbnail != nil {
		thumb := a.Thumbnail.attachment()
		att.Thumbnail = &thumb
	}
	return att
}

func (r *wireReceipt) payload() *ReceiptPayload {
	return &ReceiptPayload{
		When:       r.When,
		IsDelivery: r.IsDelivery,
		IsRead:     r.IsRead,
		IsViewed:   r.IsViewed,
		Timestamps: r.Timestamps,
	}
}

func (t *wireTyping) payload() *TypingPayload {
	return &TypingPayload{
		Action:    t.Action,
		Timestamp: t.Timestamp,
		GroupID:   t.GroupID,
	}
}

func wireDataFrom(p *DataPayload) *wireData {
	d := &wireData{
		Message:          p.Text,
		ExpiresInSeconds: p.ExpiresInSeconds,
		ViewOnce:         p.ViewOnce,
	}
	for _, a := range p.Attachments {
		d.Attachments = append(d.Attachments, wireAttachmentFrom(a))
	}
	if p.Reaction != nil {
		d.Reaction = &wireReaction{
			Emoji:            p.Reaction.Emoji,
			TargetAuthorName: p.Reaction.Target.Name,
			TargetNumber:     p.Reaction.Target.Number,
			TargetUUID:       p.Reaction.Target.UUID,
			TargetTimestamp:  p.Reaction.TargetTimestamp,
			IsRemove:         p.Reaction.IsRemove,
		}
	}
	if p.Quote != nil {
		d.Quote = &wireQuote{
			ID:           p.Quote.ID,
			AuthorName:   p.Quote.Author.Name,
			AuthorNumber: p.Quote.Author.Number,
			AuthorUUID:   p.Quote.Author.UUID,
			Text:         p.Quote.Text,
		}
	}
	if p.GroupInfo != nil {
		d.GroupInfo = &wireGroupInfo{
			GroupID:   p.GroupInfo.ID,
			GroupName: p.GroupInfo.Name,
			Revision:  p.GroupInfo.Revision,
			Type:      p.GroupInfo.Type,
		}
	}
	for _, m := range p.Mentions {
		d.Mentions = append(d.Mentions, wireMention{
			Name:   m.Target.Name,
			Number: m.Target.Number,
			UUID:   m.Target.UUID,
			Start:  m.Start,
			Length: m.Length,
		})
	}
	if p.RemoteDelete != nil {
		d.RemoteDelete = &wireRemoteDelete{Timestamp: p.RemoteDelete.Timestamp}
	}
	return d
}

func wireAttachmentFrom(a Attachment) wireAttachment {
	w := wireAttachment{
		ContentType:     a.ContentType,
		Filename:        a.Filename,
		ID:              a.ID,
		Size:            a.Size,
		Width:           a.Width,
		Height:          a.Height,
		Caption:         a.Caption,
		UploadTimestamp: a.UploadTimestamp,
	}
	if a.Thumbnail != nil {
		thumb := wireAttachmentFrom(*a.Thumbnail)
		w.Thumbnail = &thumb
	}
	return w
}
