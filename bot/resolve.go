package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrUnresolvedReceiver means a receiver string matched no known address
// shape and no cached group.
var ErrUnresolvedReceiver = errors.New("cannot resolve receiver")

var (
	// handle.digits: 3-32 word characters, then 2-9 decimal digits.
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}\.([0-9]{2,9})$`)
	// group. prefix, 59 alphanumerics, = suffix.
	groupIDRe = regexp.MustCompile(`^group\.[A-Za-z0-9]{59}=$`)
)

// Resolver turns free-form receiver strings (phone number, uuid, username,
// group public id, internal group id, or group name) into the canonical
// address the backend accepts. Shape checks run before any directory
// lookup, so a group named "+49..." never shadows a phone number.
type Resolver struct {
	directory *Directory
}

// NewResolver returns a resolver backed by the given directory.
func NewResolver(directory *Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the canonical address for receiver, or
// ErrUnresolvedReceiver.
func (r *Resolver) Resolve(receiver string) (string, error) {
	if isPhoneNumber(receiver) || isUUID(receiver) || isUsername(receiver) || IsGroupID(receiver) {
		return receiver, nil
	}
	// public ids in the wild don't all pass the strict shape check; a
	// directory hit is just as good
	if g := r.directory.GroupByID(receiver); g != nil {
		return g.ID, nil
	}
	if g := r.directory.GroupByInternalID(receiver); g != nil {
		return g.ID, nil
	}
	if g := r.directory.GroupByName(receiver); g != nil {
		return g.ID, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnresolvedReceiver, receiver)
}

func isPhoneNumber(s string) bool {
	return strings.HasPrefix(s, "+") && len(s) > 1 && len(s)-1 <= 15
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isUsername(s string) bool {
	m := usernameRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	// all-zero discriminators are not assigned
	digits, err := strconv.Atoi(m[1])
	return err == nil && digits != 0
}

// IsGroupID reports whether s has the shareable group address shape.
func IsGroupID(s string) bool {
	return groupIDRe.MatchString(s)
}
