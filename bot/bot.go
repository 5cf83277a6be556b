package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/derricw/sigbot/signal"
)

// SignalAPI is everything the bot needs from the transport. *signal.Client
// implements it against signal-cli-rest-api; *signal.Mock implements it in
// memory.
type SignalAPI interface {
	Health(ctx context.Context) error
	Receive(ctx context.Context, out chan<- []byte) error
	ListGroups(ctx context.Context) ([]signal.GroupRecord, error)
	Send(ctx context.Context, req signal.SendRequest) (int64, error)
	React(ctx context.Context, req signal.ReactRequest) error
	StartTyping(ctx context.Context, recipient string) error
	StopTyping(ctx context.Context, recipient string) error
	SendReceipt(ctx context.Context, recipient string, timestamp int64, receiptType string) error
	UpdateContact(ctx context.Context, recipient, name string, expirationSeconds int64) error
	UpdateGroup(ctx context.Context, groupID, name, description string) error
}

// Bot wires the dispatch core together: one supervised producer reads the
// envelope stream, matches each message against the registry and enqueues
// jobs; a supervised worker pool executes them.
type Bot struct {
	cfg       *Config
	client    SignalAPI
	directory *Directory
	resolver  *Resolver
	registry  *Registry
	queue     *Queue
}

// New creates a bot from a transport and config.
func New(client SignalAPI, cfg *Config) *Bot {
	if cfg.Consumers <= 0 {
		cfg.Consumers = 3
	}
	directory := NewDirectory(client)
	return &Bot{
		cfg:       cfg,
		client:    client,
		directory: directory,
		resolver:  NewResolver(directory),
		registry:  NewRegistry(),
		queue:     NewQueue(cfg.QueueSize),
	}
}

// Register records a handler with its eligibility rules. Call before
// Start; the registry is treated as immutable once dispatch begins.
func (b *Bot) Register(name string, h Handler, contacts, groups Rule, predicate func(*signal.Message) bool) {
	b.registry.Register(name, h, contacts, groups, predicate)
}

// Directory exposes the group cache, e.g. for CLI listings.
func (b *Bot) Directory() *Directory { return b.directory }

// Client exposes the underlying transport for handlers that need calls
// beyond the Context helpers (contact/group mutations).
func (b *Bot) Client() SignalAPI { return b.client }

// Resolve resolves a free-form receiver to its canonical address.
func (b *Bot) Resolve(receiver string) (string, error) {
	return b.resolver.Resolve(receiver)
}

// Send resolves receiver and sends text to it. Returns the
// backend-assigned timestamp of the sent message.
func (b *Bot) Send(ctx context.Context, receiver, text string, opts ...SendOption) (int64, error) {
	resolved, err := b.resolver.Resolve(receiver)
	if err != nil {
		return 0, err
	}
	req := signal.SendRequest{
		Number:     b.cfg.UserNumber,
		Recipients: []string{resolved},
		Message:    text,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return b.client.Send(ctx, req)
}

// UpdateContact resolves receiver and updates the contact's name and/or
// disappearing-message timer.
func (b *Bot) UpdateContact(ctx context.Context, receiver, name string, expirationSeconds int64) error {
	resolved, err := b.resolver.Resolve(receiver)
	if err != nil {
		return err
	}
	return b.client.UpdateContact(ctx, resolved, name, expirationSeconds)
}

// UpdateGroup resolves the group (by id, internal id, or name) and edits
// its metadata.
func (b *Bot) UpdateGroup(ctx context.Context, group, name, description string) error {
	resolved, err := b.resolver.Resolve(group)
	if err != nil {
		return err
	}
	return b.client.UpdateGroup(ctx, resolved, name, description)
}

// Start runs the bot until ctx is cancelled: wait for the backend, build
// the directory, resolve group rules, then launch the supervised producer
// and workers. Every loop handle is retained until its task confirms
// completion.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.waitAvailable(ctx); err != nil {
		return err
	}
	if err := b.directory.Refresh(ctx); err != nil {
		log.Warnf("initial directory refresh failed: %v", err)
	}
	b.registry.ResolveGroups(b.directory)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		NewSupervisor("producer").Run(ctx, b.produce)
	}()

	for n := 1; n <= b.cfg.Consumers; n++ {
		name := fmt.Sprintf("consumer #%d", n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			NewWorkerSupervisor(name).Run(ctx, b.consumer(name))
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// waitAvailable polls the backend health endpoint until it answers.
func (b *Bot) waitAvailable(ctx context.Context) error {
	for {
		err := b.client.Health(ctx)
		if err == nil {
			log.Infof("connected to signal service at %s", b.cfg.SignalService)
			return nil
		}
		log.Errorf("cannot connect to signal service at %s, retrying: %v", b.cfg.SignalService, err)
		if err := sleepCtx(ctx, time.Second); err != nil {
			return err
		}
	}
}

// produce is one supervised run of the stream consumer: pump raw frames
// from the receive socket and dispatch each one.
func (b *Bot) produce(ctx context.Context) error {
	log.Info("producer started")
	frames := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		errc <- b.client.Receive(ctx, frames)
		close(frames)
	}()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return <-errc
			}
			b.dispatch(ctx, frame)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch parses one raw envelope and enqueues a job per matched
// registration, in registration order. Parse failures drop the message and
// keep the stream alive.
func (b *Bot) dispatch(ctx context.Context, raw []byte) {
	log.Debugf("raw message: %s", raw)

	msg, err := signal.Parse(raw)
	if err != nil {
		log.Debugf("dropping message: %v", err)
		return
	}
	if msg.Unknown() {
		return
	}

	// a group we haven't seen yet triggers a directory refresh
	if gi := msg.GroupInfo(); gi != nil && b.directory.GroupByInternalID(gi.ID) == nil {
		if err := b.directory.Refresh(ctx); err != nil {
			log.Warnf("directory refresh failed, keeping stale cache: %v", err)
		}
	}

	for _, reg := range b.registry.Match(msg, b.directory) {
		job := Job{Reg: reg, Msg: msg, EnqueuedAt: time.Now()}
		if err := b.queue.Enqueue(ctx, job); err != nil {
			return
		}
	}
}

// consumer returns one supervised worker loop. A handler failure is logged
// and returned so the supervisor restarts the loop; the failing job itself
// is not retried.
func (b *Bot) consumer(name string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log.Infof("%s started", name)
		for {
			job, err := b.queue.Dequeue(ctx)
			if err != nil {
				return err
			}
			log.Debugf("%s got new job after %s", name, time.Since(job.EnqueuedAt))

			c := &Context{bot: b, Message: job.Msg}
			if err := job.Reg.Handler.Handle(ctx, c); err != nil {
				log.WithFields(log.Fields{
					"handler": job.Reg.Name,
					"source":  job.Msg.Recipient(),
				}).Errorf("handler failed: %+v", err)
				return fmt.Errorf("handler %s: %w", job.Reg.Name, err)
			}
		}
	}
}
