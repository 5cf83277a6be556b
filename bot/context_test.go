package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derricw/sigbot/signal"
)

func TestContextSendTargetsOriginChat(t *testing.T) {
	m := signal.NewMock(nil)
	b := testBot(t, m)

	c := &Context{bot: b, Message: privateMessage("+49123")}
	_, err := c.Send(context.Background(), "hello back")
	require.NoError(t, err)

	sent := m.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"+49123"}, sent[0].Recipients)
}

func TestContextSendTargetsGroupChat(t *testing.T) {
	// the message's derived public id ("group." + base64("G1")) must reach
	// the transport even though it fails the strict shape check
	m := signal.NewMock(nil)
	m.GroupRecords = []signal.GroupRecord{{ID: "group.RzE=", InternalID: "G1", Name: "friends"}}
	b := testBot(t, m)

	c := &Context{bot: b, Message: groupMessage("G1")}
	_, err := c.Send(context.Background(), "hello group")
	require.NoError(t, err)

	_, err = c.Reply(context.Background(), "a group reply")
	require.NoError(t, err)

	sent := m.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"group.RzE="}, sent[0].Recipients)
	assert.Equal(t, []string{"group.RzE="}, sent[1].Recipients)

	require.NoError(t, c.React(context.Background(), "👍"))
	require.Len(t, m.Reactions, 1)
	assert.Equal(t, "group.RzE=", m.Reactions[0].Recipient)
}

func TestContextReplyQuotesMessage(t *testing.T) {
	m := signal.NewMock(nil)
	b := testBot(t, m)

	msg := &signal.Message{
		Source:    signal.User{Number: "+49123", UUID: "11111111-2222-3333-4444-555555555555"},
		Timestamp: 1633169000000,
		Data: &signal.DataPayload{
			Text: "original text",
			Mentions: []signal.Mention{
				{Target: signal.User{UUID: "22222222-2222-3333-4444-555555555555"}, Start: 0, Length: 3},
			},
		},
	}
	c := &Context{bot: b, Message: msg}
	_, err := c.Reply(context.Background(), "a reply")
	require.NoError(t, err)

	sent := m.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "a reply", sent[0].Message)
	assert.Equal(t, "original text", sent[0].QuoteMessage)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", sent[0].QuoteAuthor)
	assert.Equal(t, int64(1633169000000), sent[0].QuoteTimestamp)
	require.Len(t, sent[0].QuoteMentions, 1)
	assert.Equal(t, "22222222-2222-3333-4444-555555555555", sent[0].QuoteMentions[0].Author)
}

func TestContextReact(t *testing.T) {
	m := signal.NewMock(nil)
	b := testBot(t, m)

	msg := privateMessage("+49123")
	c := &Context{bot: b, Message: msg}
	require.NoError(t, c.React(context.Background(), "👍"))

	require.Len(t, m.Reactions, 1)
	assert.Equal(t, "👍", m.Reactions[0].Reaction)
	assert.Equal(t, "+49123", m.Reactions[0].Recipient)
	assert.Equal(t, "+49123", m.Reactions[0].TargetAuthor)
	assert.Equal(t, int64(100), m.Reactions[0].Timestamp)
}

func TestContextReceiptSkipsGroups(t *testing.T) {
	m := signal.NewMock(nil)
	b := testBot(t, m)

	group := groupMessage("G1")
	c := &Context{bot: b, Message: group}
	require.NoError(t, c.Receipt(context.Background(), "read"))
	assert.Empty(t, m.Receipts)

	private := &Context{bot: b, Message: privateMessage("+49123")}
	require.NoError(t, private.Receipt(context.Background(), "read"))
	assert.Equal(t, []string{"read:+49123"}, m.Receipts)
}

func TestContextTyping(t *testing.T) {
	m := signal.NewMock(nil)
	b := testBot(t, m)

	c := &Context{bot: b, Message: privateMessage("+49123")}
	require.NoError(t, c.StartTyping(context.Background()))
	require.NoError(t, c.StopTyping(context.Background()))
	assert.Equal(t, []string{"+49123"}, m.TypingFor)
}
