package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// GroupRecord is one row of the backend's group listing.
type GroupRecord struct {
	ID         string   `json:"id"`
	InternalID string   `json:"internal_id"`
	Name       string   `json:"name"`
	Members    []string `json:"members"`
	Admins     []string `json:"admins"`
	Blocked    bool     `json:"blocked"`
}

// ContactRecord is one row of the backend's contact listing.
type ContactRecord struct {
	Number      string `json:"number"`
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	ProfileName string `json:"profile_name"`
	Blocked     bool   `json:"blocked"`
}

// SendRequest is the outbound message body for the backend's v2 send call.
type SendRequest struct {
	Number            string        `json:"number"`
	Recipients        []string      `json:"recipients"`
	Message           string        `json:"message,omitempty"`
	Base64Attachments []string      `json:"base64_attachments,omitempty"`
	Mentions          []SendMention `json:"mentions,omitempty"`
	QuoteAuthor       string        `json:"quote_author,omitempty"`
	QuoteMessage      string        `json:"quote_message,omitempty"`
	QuoteTimestamp    int64         `json:"quote_timestamp,omitempty"`
	QuoteMentions     []SendMention `json:"quote_mentions,omitempty"`
	TextMode          string        `json:"text_mode,omitempty"`
	ViewOnce          bool          `json:"view_once,omitempty"`
	EditTimestamp     int64         `json:"edit_timestamp,omitempty"`
	NotifySelf        bool          `json:"notify_self,omitempty"`
}

// SendMention targets a user by uuid (or number) inside message text.
type SendMention struct {
	Author string `json:"author"`
	Start  int64  `json:"start"`
	Length int64  `json:"length"`
}

// ReactRequest adds or removes an emoji reaction to the message identified
// by (TargetAuthor, Timestamp).
type ReactRequest struct {
	Recipient    string `json:"recipient"`
	Reaction     string `json:"reaction"`
	TargetAuthor string `json:"target_author"`
	Timestamp    int64  `json:"timestamp"`
	Remove       bool   `json:"-"`
}

// Client talks to a signal-cli-rest-api instance: REST for sends and
// directory listings, a websocket for the inbound envelope stream.
type Client struct {
	service string
	number  string
	http    *http.Client
	dialer  *websocket.Dialer
}

// NewClient returns a client for the given service ("host:port") and
// account phone number.
func NewClient(service, number string) *Client {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	return &Client{
		service: service,
		number:  number,
		http:    &http.Client{Timeout: 30 * time.Second},
		dialer:  &dialer,
	}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s%s", c.service, path)
}

// Health reports whether the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/about", nil, nil)
}

// Receive dials the backend's receive socket and forwards each raw
// envelope frame to out. It blocks until the socket fails or ctx is
// cancelled; the caller is expected to run it under a supervisor.
func (c *Client) Receive(ctx context.Context, out chan<- []byte) error {
	wsURL := fmt.Sprintf("ws://%s/v1/receive/%s", c.service, c.number)
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial receive socket: %w", err)
	}
	defer conn.Close()
	log.Debugf("receive socket connected: %s", wsURL)

	// gorilla reads don't take a context; closing the conn unblocks them.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read receive socket: %w", err)
		}
		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ListGroups fetches the account's group directory.
func (c *Client) ListGroups(ctx context.Context) ([]GroupRecord, error) {
	var groups []GroupRecord
	err := c.do(ctx, http.MethodGet, "/v1/groups/"+c.number, nil, &groups)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// ListContacts fetches the account's contact directory.
func (c *Client) ListContacts(ctx context.Context) ([]ContactRecord, error) {
	var contacts []ContactRecord
	err := c.do(ctx, http.MethodGet, "/v1/contacts/"+c.number, nil, &contacts)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Send posts a message and returns the backend-assigned timestamp.
func (c *Client) Send(ctx context.Context, req SendRequest) (int64, error) {
	if req.Number == "" {
		req.Number = c.number
	}
	var resp struct {
		Timestamp int64 `json:"timestamp"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/send", req, &resp); err != nil {
		return 0, fmt.Errorf("send: %w", err)
	}
	return resp.Timestamp, nil
}

// React adds (or removes, if req.Remove) a reaction.
func (c *Client) React(ctx context.Context, req ReactRequest) error {
	method := http.MethodPost
	if req.Remove {
		method = http.MethodDelete
	}
	if err := c.do(ctx, method, "/v1/reactions/"+c.number, req, nil); err != nil {
		return fmt.Errorf("react: %w", err)
	}
	return nil
}

// StartTyping shows a typing indicator to the recipient.
func (c *Client) StartTyping(ctx context.Context, recipient string) error {
	body := map[string]string{"recipient": recipient}
	return c.do(ctx, http.MethodPut, "/v1/typing-indicator/"+c.number, body, nil)
}

// StopTyping clears the typing indicator.
func (c *Client) StopTyping(ctx context.Context, recipient string) error {
	body := map[string]string{"recipient": recipient}
	return c.do(ctx, http.MethodDelete, "/v1/typing-indicator/"+c.number, body, nil)
}

// SendReceipt marks the message identified by timestamp as "read" or
// "viewed" for the recipient.
func (c *Client) SendReceipt(ctx context.Context, recipient string, timestamp int64, receiptType string) error {
	body := map[string]interface{}{
		"receipt_type": receiptType,
		"recipient":    recipient,
		"timestamp":    timestamp,
	}
	return c.do(ctx, http.MethodPost, "/v1/receipts/"+c.number, body, nil)
}

// UpdateContact sets a contact's name and/or disappearing-message timer.
func (c *Client) UpdateContact(ctx context.Context, recipient, name string, expirationSeconds int64) error {
	body := map[string]interface{}{
		"recipient": recipient,
	}
	if name != "" {
		body["name"] = name
	}
	if expirationSeconds > 0 {
		body["expiration_in_seconds"] = expirationSeconds
	}
	return c.do(ctx, http.MethodPut, "/v1/contacts/"+c.number, body, nil)
}

// UpdateGroup edits a group's name and/or description.
func (c *Client) UpdateGroup(ctx context.Context, groupID, name, description string) error {
	body := map[string]interface{}{}
	if name != "" {
		body["name"] = name
	}
	if description != "" {
		body["description"] = description
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/groups/%s/%s", c.number, groupID), body, nil)
}

// do performs one JSON request/response cycle against the REST API.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(detail))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
