package world

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/l1jgo/doregistry/internal/config"
	"github.com/l1jgo/doregistry/internal/core/event"
	"github.com/l1jgo/doregistry/internal/core/hierarchy"
)

// View selects one of the two object tables.
type View int

const (
	ViewAuthoritative View = iota
	ViewOwner
)

func (v View) String() string {
	if v == ViewOwner {
		return "doId2ownerView"
	}
	return "doId2do"
}

// Collection is the registry of record for distributed objects: the flat
// id tables plus the parent/zone hierarchy, kept consistent with each
// object's stored location.
// Accessed only from the game loop goroutine, no locks. Hooks run inline
// and may add, remove or move objects.
type Collection struct {
	cfg config.RegistryConfig
	log *zap.Logger

	tables  [2]map[DoID]Object // indexed by View; owner table nil when disabled
	index   *hierarchy.Index
	pending map[DoID][]func(Object)

	deleteQueue []DoID
}

func NewCollection(cfg config.RegistryConfig, log *zap.Logger) *Collection {
	c := &Collection{
		cfg:     cfg,
		log:     log,
		index:   hierarchy.NewIndex(),
		pending: make(map[DoID][]func(Object)),
	}
	c.tables[ViewAuthoritative] = make(map[DoID]Object, 256)
	if cfg.HasOwnerView {
		c.tables[ViewOwner] = make(map[DoID]Object, 64)
	}
	return c
}

func (c *Collection) HasOwnerView() bool { return c.cfg.HasOwnerView }

// IndexEmpty reports whether no object is indexed under any parent.
func (c *Collection) IndexEmpty() bool { return c.index.IsEmpty() }

// IndexLen returns the number of indexed objects.
func (c *Collection) IndexLen() int { return c.index.Len() }

// IndexString renders the hierarchy for diagnostics.
func (c *Collection) IndexString() string { return c.index.String() }

func (c *Collection) table(v View) (map[DoID]Object, error) {
	if v == ViewOwner && !c.cfg.HasOwnerView {
		return nil, ErrUnsupportedView
	}
	return c.tables[v], nil
}

// Table returns a copy of the selected table.
func (c *Collection) Table(v View) (map[DoID]Object, error) {
	t, err := c.table(v)
	if err != nil {
		return nil, err
	}
	return maps.Clone(t), nil
}

// Len returns the number of objects in the selected table.
func (c *Collection) Len(v View) int {
	t, err := c.table(v)
	if err != nil {
		return 0
	}
	return len(t)
}

func (c *Collection) Get(id DoID) (Object, bool) {
	obj, ok := c.tables[ViewAuthoritative][id]
	return obj, ok
}

func (c *Collection) GetOwnerView(id DoID) (Object, bool, error) {
	t, err := c.table(ViewOwner)
	if err != nil {
		return nil, false, err
	}
	obj, ok := t[id]
	return obj, ok, nil
}

func (c *Collection) IsRegistered(id DoID) bool {
	_, ok := c.tables[ViewAuthoritative][id]
	return ok
}

// AddObject registers obj in the authoritative table and indexes the
// location it carries, if any.
func (c *Collection) AddObject(obj Object) error {
	loc, ok := obj.Location()
	if !ok {
		loc = Location{}
	}
	return c.add(obj, ViewAuthoritative, loc)
}

// AddObjectAt registers obj at an explicit location.
func (c *Collection) AddObjectAt(obj Object, loc Location) error {
	return c.add(obj, ViewAuthoritative, loc)
}

// AddOwnerView registers the owner-restricted view of an object. Owner
// views are never indexed.
func (c *Collection) AddOwnerView(obj Object) error {
	return c.add(obj, ViewOwner, Location{})
}

func (c *Collection) add(obj Object, v View, loc Location) error {
	t, err := c.table(v)
	if err != nil {
		return err
	}
	id := obj.DoID()

	var dupErr error
	if older, ok := t[id]; ok {
		dupErr = &DuplicateIDError{ID: id, View: v, New: obj, Older: older}
		c.log.Error("duplicate doId",
			zap.Uint32("do_id", uint32(id)),
			zap.Stringer("table", v),
			zap.String("new_class", obj.ClassName()),
			zap.String("old_class", older.ClassName()))
		if v == ViewAuthoritative {
			c.ClearLocation(older)
		}
	}

	t[id] = obj

	if v == ViewOwner {
		// owner views are never located, unless the same instance is also
		// the authoritative object
		if !c.owns(obj) {
			obj.base().detach()
		}
		return dupErr
	}

	// the declared location is a target, not yet indexed
	obj.base().detach()
	var locErr error
	if loc.IsValid() {
		locErr = c.SetLocation(obj, loc)
	}
	if c.owns(obj) {
		c.firePending(obj)
	}
	switch {
	case locErr == nil:
		return dupErr
	case dupErr == nil:
		return locErr
	default:
		return errors.Join(dupErr, locErr)
	}
}

// RemoveObject clears obj's location, notifying its parent, then erases it
// from the authoritative table. Owner views are left alone.
// Instances other than the registered one are ignored.
func (c *Collection) RemoveObject(obj Object) {
	if !c.owns(obj) {
		return
	}
	c.ClearLocation(obj)
	if c.owns(obj) {
		delete(c.tables[ViewAuthoritative], obj.DoID())
	}
}

func (c *Collection) RemoveOwnerView(obj Object) error {
	t, err := c.table(ViewOwner)
	if err != nil {
		return err
	}
	if cur, ok := t[obj.DoID()]; ok && cur == obj {
		delete(t, obj.DoID())
	}
	return nil
}

// SetLocation moves obj to loc. An invalid loc detaches it.
// The old location is deleted (departure hook on the old parent) before the
// new one is stored, and the arrival hook on the new parent runs after the
// store, so hooks always observe the updated hierarchy.
func (c *Collection) SetLocation(obj Object, loc Location) error {
	if !c.owns(obj) {
		return fmt.Errorf("set location of doId %d: %w", obj.DoID(), ErrNotRegistered)
	}
	b := obj.base()
	old, hadOld := b.Location()
	newValid := loc.IsValid()

	if hadOld && newValid && old == loc {
		return nil
	}
	if !hadOld && !newValid {
		return nil
	}

	if hadOld {
		c.ClearLocation(obj)
		if _, moved := b.Location(); moved {
			// a departure hook relocated obj; this call is newer
			c.ClearLocation(obj)
		}
		if !c.owns(obj) {
			// removed by a departure hook
			return nil
		}
	}

	c.log.Debug("set location",
		zap.Uint32("do_id", uint32(obj.DoID())),
		zap.Stringer("from", old),
		zap.Stringer("to", loc))

	if !newValid {
		return nil
	}

	if pc, ok := obj.(ParentChecker); ok {
		pc.CheckParentAssignment(loc.Parent)
		if !c.owns(obj) {
			return fmt.Errorf("doId %d removed during parent check: %w", obj.DoID(), ErrNotRegistered)
		}
	}
	if cur, ok := c.index.LocationOf(obj.DoID()); ok && cur != loc {
		// obj is detached but still indexed: a departure hook is moving it
		// before its old bucket was released
		c.index.Delete(obj.DoID(), cur)
	}
	if err := c.index.Store(obj.DoID(), loc); err != nil {
		return err
	}
	b.set(loc)

	if hadOld && old.Parent == loc.Parent && !c.cfg.NotifyZoneMoves {
		return nil
	}
	c.notifyArrive(obj, loc)
	return nil
}

func (c *Collection) owns(obj Object) bool {
	cur, ok := c.tables[ViewAuthoritative][obj.DoID()]
	return ok && cur == obj
}

func (c *Collection) notifyArrive(obj Object, loc Location) {
	parent, ok := c.Get(loc.Parent)
	if !ok {
		if loc.Parent != 0 && uint32(loc.Parent) != c.cfg.GameDoID {
			c.log.Warn("parent not present",
				zap.Uint32("do_id", uint32(obj.DoID())),
				zap.Uint32("parent_id", uint32(loc.Parent)))
		}
		return
	}
	if a, ok := parent.(ChildArriver); ok {
		a.HandleChildArrive(obj, loc.Zone)
	}
}

// ClearLocation detaches obj. No-op unless obj is the registered instance.
// The current parent hears about the departure
// while obj is still indexed in the zone it is leaving.
func (c *Collection) ClearLocation(obj Object) {
	if !c.owns(obj) {
		return
	}
	b := obj.base()
	loc, ok := b.Location()
	if !ok {
		return
	}
	b.detach()
	if parent, ok := c.Get(loc.Parent); ok {
		if l, ok := parent.(ChildLeaver); ok {
			l.HandleChildLeave(obj, loc.Zone)
		}
	}
	c.index.Delete(obj.DoID(), loc)
}

// HandleObjectLocation applies a decoded location update. Updates for
// unknown objects are dropped.
func (c *Collection) HandleObjectLocation(ev event.ObjectLocation) {
	obj, ok := c.Get(ev.DoID)
	if !ok {
		c.log.Warn("location update for non-existent object",
			zap.Uint32("do_id", uint32(ev.DoID)),
			zap.Stringer("location", ev.Location))
		return
	}
	if err := c.SetLocation(obj, ev.Location); err != nil {
		c.log.Error("location update failed",
			zap.Uint32("do_id", uint32(ev.DoID)),
			zap.Error(err))
	}
}

// HandleSetLocation applies a location update addressed by sender channel.
func (c *Collection) HandleSetLocation(channel uint64, loc Location) {
	if channel > uint64(^uint32(0)) {
		c.log.Warn("set location from non-object channel", zap.Uint64("channel", channel))
		return
	}
	c.HandleObjectLocation(event.ObjectLocation{DoID: DoID(channel), Location: loc})
}

// ForEach calls fn for every registered object. Ids are snapshot first:
// objects removed by fn before their turn are skipped, objects added by fn
// are not visited.
func (c *Collection) ForEach(fn func(Object)) {
	for _, id := range c.sortedIDs(ViewAuthoritative) {
		if obj, ok := c.Get(id); ok {
			fn(obj)
		}
	}
}

func (c *Collection) sortedIDs(v View) []DoID {
	return slices.Sorted(maps.Keys(c.tables[v]))
}

// DeleteAll removes every authoritative object. A hierarchy left non-empty
// afterwards is logged, cleared and reported as ErrIndexResidue.
func (c *Collection) DeleteAll() error {
	c.ForEach(c.RemoveObject)
	clear(c.pending)
	c.deleteQueue = c.deleteQueue[:0]

	if !c.index.IsEmpty() {
		c.log.Warn("hierarchy table not empty",
			zap.Stringer("hierarchy", c.index))
		c.index.Clear()
		// objects registered by hooks during teardown lost their bucket
		for _, obj := range c.tables[ViewAuthoritative] {
			obj.base().detach()
		}
		return ErrIndexResidue
	}
	return nil
}

// MarkForDeletion queues an object for removal at the next flush. Safe to
// call from hooks.
func (c *Collection) MarkForDeletion(id DoID) {
	c.deleteQueue = append(c.deleteQueue, id)
}

// FlushDeletions removes queued objects and returns how many were removed.
// Ids queued by hooks during the flush wait for the next one.
func (c *Collection) FlushDeletions() int {
	queue := c.deleteQueue
	c.deleteQueue = make([]DoID, 0, len(queue))
	n := 0
	for _, id := range queue {
		if obj, ok := c.Get(id); ok {
			c.RemoveObject(obj)
			n++
		}
	}
	return n
}

// PendingDeletions returns the number of queued removals.
func (c *Collection) PendingDeletions() int { return len(c.deleteQueue) }
