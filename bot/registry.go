package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/derricw/sigbot/signal"
)

// Handler reacts to one dispatched message.
type Handler interface {
	Handle(ctx context.Context, c *Context) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, c *Context) error

func (f HandlerFunc) Handle(ctx context.Context, c *Context) error { return f(ctx, c) }

type ruleKind int

const (
	ruleAllowAll ruleKind = iota
	ruleDenyAll
	ruleExplicit
)

// Rule decides which chats a registration is eligible for: everything,
// nothing, or an explicit id set.
type Rule struct {
	kind ruleKind
	ids  []string
	set  map[string]struct{}
}

// AllowAll matches every chat.
func AllowAll() Rule { return Rule{kind: ruleAllowAll} }

// DenyAll matches no chat.
func DenyAll() Rule { return Rule{kind: ruleDenyAll} }

// Only matches exactly the given ids. For group rules the ids may also be
// group names; they are normalized to public ids once the directory is
// populated.
func Only(ids ...string) Rule {
	r := Rule{kind: ruleExplicit, ids: ids, set: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		r.set[id] = struct{}{}
	}
	return r
}

// allowsAny reports whether any of the candidate ids passes the rule.
// Empty candidates never pass an explicit rule.
func (r Rule) allowsAny(ids ...string) bool {
	switch r.kind {
	case ruleAllowAll:
		return true
	case ruleDenyAll:
		return false
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := r.set[id]; ok {
			return true
		}
	}
	return false
}

// Registration is one (handler, eligibility) pair.
type Registration struct {
	Name      string
	Handler   Handler
	Contacts  Rule
	Groups    Rule
	Predicate func(*signal.Message) bool
}

// Registry holds the registered handlers. It is populated at startup and
// read-only once dispatch begins, so Match takes no lock.
type Registry struct {
	registrations []*Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a registration. Predicate may be nil.
func (r *Registry) Register(name string, h Handler, contacts, groups Rule, predicate func(*signal.Message) bool) {
	r.registrations = append(r.registrations, &Registration{
		Name:      name,
		Handler:   h,
		Contacts:  contacts,
		Groups:    groups,
		Predicate: predicate,
	})
}

// Unregister removes every registration with the given name.
func (r *Registry) Unregister(name string) {
	kept := r.registrations[:0]
	for _, reg := range r.registrations {
		if reg.Name != name {
			kept = append(kept, reg)
		}
	}
	r.registrations = kept
}

// Registrations returns the registrations in registration order.
func (r *Registry) Registrations() []*Registration {
	return r.registrations
}

// ResolveGroups normalizes explicit group rules from names to public ids.
// Entries already shaped like a public id pass through; names that match no
// cached group are dropped with a warning. Call after the first directory
// refresh and before dispatch starts.
func (r *Registry) ResolveGroups(directory *Directory) {
	for _, reg := range r.registrations {
		if reg.Groups.kind != ruleExplicit {
			continue
		}
		resolved := make([]string, 0, len(reg.Groups.ids))
		for _, entry := range reg.Groups.ids {
			if IsGroupID(entry) || directory.GroupByID(entry) != nil {
				resolved = append(resolved, entry)
				continue
			}
			if g := directory.GroupByName(entry); g != nil {
				resolved = append(resolved, g.ID)
				continue
			}
			log.Warnf("[%s] %q is not a valid group name or id", reg.Name, entry)
		}
		reg.Groups = Only(resolved...)
	}
}

// Match returns the registrations eligible for msg, in registration order.
// A message may match zero, one, or many registrations.
func (r *Registry) Match(msg *signal.Message, directory *Directory) []*Registration {
	var matched []*Registration
	for _, reg := range r.registrations {
		if !eligible(reg, msg, directory) {
			continue
		}
		if reg.Predicate != nil && !reg.Predicate(msg) {
			continue
		}
		matched = append(matched, reg)
	}
	return matched
}

func eligible(reg *Registration, msg *signal.Message, directory *Directory) bool {
	switch {
	case msg.IsPrivate():
		return reg.Contacts.allowsAny(msg.Source.Number, msg.Source.UUID)
	case msg.IsGroup():
		// explicit group rules are keyed on public ids
		var publicID string
		if g := directory.GroupByInternalID(msg.GroupInfo().ID); g != nil {
			publicID = g.ID
		}
		return reg.Groups.allowsAny(publicID)
	default:
		// receipts, typing events and unknown payloads match nothing
		return false
	}
}
