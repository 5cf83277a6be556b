package bot

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/derricw/sigbot/signal"
)

// GroupLister is the slice of the transport the directory needs.
type GroupLister interface {
	ListGroups(ctx context.Context) ([]signal.GroupRecord, error)
}

// directorySnapshot is one immutable build of the group cache. Lookups read
// whichever snapshot was current when they started; Refresh swaps in a new
// one wholesale so readers never see a half-built cache.
type directorySnapshot struct {
	groups       []*signal.GroupRecord
	byID         map[string]*signal.GroupRecord
	byInternalID map[string]*signal.GroupRecord
	byName       map[string][]*signal.GroupRecord
}

// Directory caches the account's groups, keyed by public id, internal id
// and name. It is rebuilt at startup and whenever a message references a
// group we don't know yet.
type Directory struct {
	lister GroupLister

	mu   sync.RWMutex
	snap *directorySnapshot
}

// NewDirectory returns an empty directory backed by the given lister.
func NewDirectory(lister GroupLister) *Directory {
	return &Directory{
		lister: lister,
		snap: &directorySnapshot{
			byID:         map[string]*signal.GroupRecord{},
			byInternalID: map[string]*signal.GroupRecord{},
			byName:       map[string][]*signal.GroupRecord{},
		},
	}
}

// Refresh replaces the whole cache from the backend's group listing. On
// error the previous snapshot stays in place.
func (d *Directory) Refresh(ctx context.Context) error {
	records, err := d.lister.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("refresh group directory: %w", err)
	}

	snap := &directorySnapshot{
		byID:         make(map[string]*signal.GroupRecord, len(records)),
		byInternalID: make(map[string]*signal.GroupRecord, len(records)),
		byName:       make(map[string][]*signal.GroupRecord),
	}
	for i := range records {
		g := &records[i]
		snap.groups = append(snap.groups, g)
		snap.byID[g.ID] = g
		snap.byInternalID[g.InternalID] = g
		snap.byName[g.Name] = append(snap.byName[g.Name], g)
	}

	d.mu.Lock()
	d.snap = snap
	d.mu.Unlock()

	log.Infof("%d groups detected", len(records))
	return nil
}

func (d *Directory) snapshot() *directorySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Groups returns the cached groups in listing order.
func (d *Directory) Groups() []*signal.GroupRecord {
	return d.snapshot().groups
}

// GroupByID looks up a group by its public id.
func (d *Directory) GroupByID(id string) *signal.GroupRecord {
	return d.snapshot().byID[id]
}

// GroupByInternalID looks up a group by its backend-internal id.
func (d *Directory) GroupByInternalID(internalID string) *signal.GroupRecord {
	return d.snapshot().byInternalID[internalID]
}

// GroupByName looks up a group by display name. Names are not unique; on a
// collision the first-listed group wins and a warning is logged.
func (d *Directory) GroupByName(name string) *signal.GroupRecord {
	groups := d.snapshot().byName[name]
	if len(groups) == 0 {
		return nil
	}
	if len(groups) > 1 {
		log.Warnf("more than one group named %q, using the first one", name)
	}
	return groups[0]
}
