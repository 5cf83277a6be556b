package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataMessage(t *testing.T) {
	raw := `{"envelope":{"source":"+4901234567890","sourceNumber":"+4901234567890","sourceUuid":"asdf","sourceName":"name","sourceDevice":1,"timestamp":1633169000000,"dataMessage":{"timestamp":1633169000000,"message":"hello","expiresInSeconds":0,"viewOnce":false}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, User{Name: "name", Number: "+4901234567890", UUID: "asdf"}, msg.Source)
	assert.Equal(t, int64(1633169000000), msg.Timestamp)
	require.NotNil(t, msg.Data)
	assert.Equal(t, "hello", msg.Text())
	assert.True(t, msg.IsPrivate())
	assert.False(t, msg.IsGroup())
	assert.False(t, msg.Unknown())
}

func TestParseSyncMessage(t *testing.T) {
	raw := `{"envelope":{"sourceNumber":"+49123","sourceUuid":"u1","timestamp":100,"syncMessage":{"sentMessage":{"timestamp":100,"message":"from myself","groupInfo":{"groupId":"gid=","type":"DELIVER"}}}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.Sync)
	assert.Nil(t, msg.Data)
	assert.Equal(t, "from myself", msg.Text())
	assert.True(t, msg.IsGroup())
}

func TestParseSyncWinsOverData(t *testing.T) {
	// payload branch is priority ordered, sync first
	raw := `{"envelope":{"sourceUuid":"u1","timestamp":100,"dataMessage":{"message":"data"},"syncMessage":{"sentMessage":{"message":"sync"}}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.Sync)
	assert.Nil(t, msg.Data)
	assert.Equal(t, "sync", msg.Text())
}

func TestParseSyncWithoutSentMessage(t *testing.T) {
	raw := `{"envelope":{"sourceUuid":"u1","timestamp":100,"syncMessage":{}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.True(t, msg.Unknown())
}

func TestParseReceiptMessage(t *testing.T) {
	raw := `{"envelope":{"sourceNumber":"+49123","sourceUuid":"u1","timestamp":100,"receiptMessage":{"when":100,"isDelivery":true,"isRead":false,"timestamps":[90,95]}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.Receipt)
	assert.True(t, msg.Receipt.IsDelivery)
	assert.Equal(t, []int64{90, 95}, msg.Receipt.Timestamps)
	assert.False(t, msg.IsPrivate())
	assert.False(t, msg.IsGroup())
}

func TestParseTypingMessage(t *testing.T) {
	raw := `{"envelope":{"sourceUuid":"u1","timestamp":100,"typingMessage":{"action":"STARTED","timestamp":100}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.Typing)
	assert.Equal(t, "STARTED", msg.Typing.Action)
}

func TestParseUnknownPayload(t *testing.T) {
	// a valid envelope with no recognized payload key is not an error
	raw := `{"envelope":{"sourceUuid":"u1","timestamp":100}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.True(t, msg.Unknown())
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{{{`,
		"no envelope":     `{}`,
		"no identity":     `{"envelope":{"timestamp":100,"dataMessage":{"message":"hi"}}}`,
		"no timestamp":    `{"envelope":{"sourceUuid":"u1","dataMessage":{"message":"hi"}}}`,
		"not even object": `[1,2,3]`,
		"scalar envelope": `{"envelope": 5}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
			perr, ok := err.(*ParseError)
			require.True(t, ok)
			assert.Equal(t, Malformed, perr.Kind)
		})
	}
}

func TestParseInvalidField(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{
			"revision",
			`{"envelope":{"sourceUuid":"u1","timestamp":100,"dataMessage":{"message":"hi","groupInfo":{"groupId":"g","revision":"x"}}}}`,
			"revision",
		},
		{
			"attachment size",
			`{"envelope":{"sourceUuid":"u1","timestamp":100,"dataMessage":{"message":"hi","attachments":[{"id":"a","size":"big"}]}}}`,
			"size",
		},
		{
			"mention start",
			`{"envelope":{"sourceUuid":"u1","timestamp":100,"dataMessage":{"message":"hi","mentions":[{"uuid":"u2","start":"zero","length":1}]}}}`,
			"start",
		},
		{
			"envelope timestamp",
			`{"envelope":{"sourceUuid":"u1","timestamp":"then","dataMessage":{"message":"hi"}}}`,
			"timestamp",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			require.Error(t, err)
			perr, ok := err.(*ParseError)
			require.True(t, ok)
			assert.Equal(t, InvalidField, perr.Kind)
			assert.Equal(t, tc.field, perr.Field)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	msg := &Message{
		Source:    User{Name: "alice", Number: "+491234", UUID: "11111111-2222-3333-4444-555555555555"},
		Timestamp: 1633169000000,
		Data: &DataPayload{
			Text:             "hi there",
			ExpiresInSeconds: 3600,
			ViewOnce:         true,
			Attachments: []Attachment{
				{
					ContentType:     "image/png",
					Filename:        "cat.png",
					ID:              "att1",
					Size:            1024,
					Width:           64,
					Height:          48,
					UploadTimestamp: 1633168000000,
					Thumbnail:       &Attachment{ContentType: "image/png", ID: "thumb1", Size: 99},
				},
			},
			Quote: &Quote{
				ID:     1633100000000,
				Author: User{Name: "bob", Number: "+495678", UUID: "aaaa"},
				Text:   "original",
			},
			Reaction: &Reaction{
				Emoji:           "👍",
				Target:          User{Number: "+495678", UUID: "aaaa"},
				TargetTimestamp: 1633100000000,
			},
			GroupInfo: &GroupInfo{ID: "gid=", Name: "friends", Revision: 7, Type: "DELIVER"},
			Mentions: []Mention{
				{Target: User{UUID: "aaaa"}, Start: 0, Length: 3},
			},
			RemoteDelete: &RemoteDelete{Timestamp: 1633000000000},
		},
	}

	raw, err := EncodeEnvelope(msg)
	require.NoError(t, err)

	// sibling keys flattened back onto the envelope
	assert.Contains(t, string(raw), `"sourceName":"alice"`)
	assert.Contains(t, string(raw), `"sourceNumber":"+491234"`)
	assert.NotContains(t, string(raw), `"Source"`)

	again, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, msg, again)
}

func TestEncodeRoundTripReceipt(t *testing.T) {
	msg := &Message{
		Source:    User{Number: "+491234"},
		Timestamp: 100,
		Receipt:   &ReceiptPayload{When: 100, IsRead: true, Timestamps: []int64{90}},
	}
	raw, err := EncodeEnvelope(msg)
	require.NoError(t, err)
	again, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, msg, again)
}

func TestLegacySourceFallback(t *testing.T) {
	raw := `{"envelope":{"source":"+4901234567890","timestamp":100,"dataMessage":{"message":"old schema"}}}`
	msg, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "+4901234567890", msg.Source.Number)
}

func TestPublicID(t *testing.T) {
	g := &GroupInfo{ID: "group_id1="}
	assert.Equal(t, "group.Z3JvdXBfaWQxPQ==", g.PublicID())
}

func TestRecipient(t *testing.T) {
	group := &Message{
		Source:    User{UUID: "u1"},
		Timestamp: 100,
		Data:      &DataPayload{GroupInfo: &GroupInfo{ID: "group_id1="}},
	}
	assert.Equal(t, "group.Z3JvdXBfaWQxPQ==", group.Recipient())

	private := &Message{Source: User{Number: "+49123", UUID: "u1"}, Timestamp: 100, Data: &DataPayload{Text: "x"}}
	assert.Equal(t, "u1", private.Recipient())

	numberOnly := &Message{Source: User{Number: "+49123"}, Timestamp: 100, Data: &DataPayload{Text: "x"}}
	assert.Equal(t, "+49123", numberOnly.Recipient())
}
