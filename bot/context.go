package bot

import (
	"context"

	"github.com/derricw/sigbot/signal"
)

// SendOption mutates an outbound send request.
type SendOption func(*signal.SendRequest)

// WithAttachments attaches base64-encoded payloads (data-URL form).
func WithAttachments(base64Attachments ...string) SendOption {
	return func(req *signal.SendRequest) {
		req.Base64Attachments = append(req.Base64Attachments, base64Attachments...)
	}
}

// WithMentions tags users in the message text.
func WithMentions(mentions ...signal.SendMention) SendOption {
	return func(req *signal.SendRequest) {
		req.Mentions = append(req.Mentions, mentions...)
	}
}

// WithTextMode sets the backend text mode ("styled" for markdown-ish text).
func WithTextMode(mode string) SendOption {
	return func(req *signal.SendRequest) {
		req.TextMode = mode
	}
}

// Context is handed to a handler for one dispatched message. Every
// operation resolves the message's recipient through the resolver before
// delegating to the transport.
type Context struct {
	bot     *Bot
	Message *signal.Message
}

// Send sends text into the chat the message came from.
func (c *Context) Send(ctx context.Context, text string, opts ...SendOption) (int64, error) {
	return c.bot.Send(ctx, c.Message.Recipient(), text, opts...)
}

// Reply sends text quoting the dispatched message.
func (c *Context) Reply(ctx context.Context, text string, opts ...SendOption) (int64, error) {
	quote := func(req *signal.SendRequest) {
		req.QuoteAuthor = c.targetAuthor()
		req.QuoteMessage = c.Message.Text()
		req.QuoteTimestamp = c.Message.Timestamp
		for _, m := range c.mentions() {
			req.QuoteMentions = append(req.QuoteMentions, signal.SendMention{
				Author: mentionAuthor(m),
				Start:  m.Start,
				Length: m.Length,
			})
		}
	}
	return c.bot.Send(ctx, c.Message.Recipient(), text, append([]SendOption{quote}, opts...)...)
}

// React reacts to the dispatched message with emoji.
func (c *Context) React(ctx context.Context, emoji string) error {
	recipient, err := c.bot.resolver.Resolve(c.Message.Recipient())
	if err != nil {
		return err
	}
	return c.bot.client.React(ctx, signal.ReactRequest{
		Recipient:    recipient,
		Reaction:     emoji,
		TargetAuthor: c.targetAuthor(),
		Timestamp:    c.Message.Timestamp,
	})
}

// StartTyping shows a typing indicator in the chat.
func (c *Context) StartTyping(ctx context.Context) error {
	recipient, err := c.bot.resolver.Resolve(c.Message.Recipient())
	if err != nil {
		return err
	}
	return c.bot.client.StartTyping(ctx, recipient)
}

// StopTyping clears the typing indicator.
func (c *Context) StopTyping(ctx context.Context) error {
	recipient, err := c.bot.resolver.Resolve(c.Message.Recipient())
	if err != nil {
		return err
	}
	return c.bot.client.StopTyping(ctx, recipient)
}

// Receipt marks the dispatched message "read" or "viewed". Receipts don't
// apply to group chats; those are a silent no-op.
func (c *Context) Receipt(ctx context.Context, receiptType string) error {
	if c.Message.IsGroup() {
		return nil
	}
	recipient, err := c.bot.resolver.Resolve(c.Message.Recipient())
	if err != nil {
		return err
	}
	return c.bot.client.SendReceipt(ctx, recipient, c.Message.Timestamp, receiptType)
}

// targetAuthor identifies the sender for quote/reaction targets,
// preferring the stable id.
func (c *Context) targetAuthor() string {
	if c.Message.Source.UUID != "" {
		return c.Message.Source.UUID
	}
	return c.Message.Source.Number
}

func (c *Context) mentions() []signal.Mention {
	if p := c.Message.Data; p != nil {
		return p.Mentions
	}
	if p := c.Message.Sync; p != nil {
		return p.Mentions
	}
	return nil
}

func mentionAuthor(m signal.Mention) string {
	if m.Target.UUID != "" {
		return m.Target.UUID
	}
	return m.Target.Number
}
