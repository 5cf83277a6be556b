package signal

import (
	"context"
	"sync"
	"time"
)

// Mock is an in-memory transport for tests and offline runs. It replays
// canned wire frames instead of dialing the backend and records every
// outbound call.
type Mock struct {
	mu sync.Mutex

	// Wire frames delivered by Receive, in order.
	Wire [][]byte
	// GroupRecords returned by ListGroups.
	GroupRecords []GroupRecord
	// ContactRecords returned by ListContacts.
	ContactRecords []ContactRecord
	// BlockAfterWire keeps Receive blocked (until ctx cancel) once the
	// canned frames are drained, mimicking an idle socket.
	BlockAfterWire bool

	Sent           []SendRequest
	Reactions      []ReactRequest
	Receipts       []string
	TypingFor      []string
	ContactUpdates []string
	GroupUpdates   []string
}

// NewMock returns a mock transport that will replay the given frames.
func NewMock(wire [][]byte) *Mock {
	return &Mock{Wire: wire}
}

func (m *Mock) Health(ctx context.Context) error { return nil }

func (m *Mock) Receive(ctx context.Context, out chan<- []byte) error {
	m.mu.Lock()
	frames := m.Wire
	m.Wire = nil
	m.mu.Unlock()
	for _, frame := range frames {
		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.BlockAfterWire {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (m *Mock) ListGroups(ctx context.Context) ([]GroupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GroupRecords, nil
}

func (m *Mock) ListContacts(ctx context.Context) ([]ContactRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ContactRecords, nil
}

func (m *Mock) Send(ctx context.Context, req SendRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, req)
	return time.Now().UnixMilli(), nil
}

func (m *Mock) React(ctx context.Context, req ReactRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reactions = append(m.Reactions, req)
	return nil
}

func (m *Mock) StartTyping(ctx context.Context, recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TypingFor = append(m.TypingFor, recipient)
	return nil
}

func (m *Mock) StopTyping(ctx context.Context, recipient string) error {
	return nil
}

func (m *Mock) SendReceipt(ctx context.Context, recipient string, timestamp int64, receiptType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Receipts = append(m.Receipts, receiptType+":"+recipient)
	return nil
}

func (m *Mock) UpdateContact(ctx context.Context, recipient, name string, expirationSeconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContactUpdates = append(m.ContactUpdates, recipient+":"+name)
	return nil
}

func (m *Mock) UpdateGroup(ctx context.Context, groupID, name, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GroupUpdates = append(m.GroupUpdates, groupID+":"+name)
	return nil
}

// SentMessages returns a copy of the recorded sends.
func (m *Mock) SentMessages() []SendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendRequest, len(m.Sent))
	copy(out, m.Sent)
	return out
}
