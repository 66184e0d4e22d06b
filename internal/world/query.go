package world

import (
	"fmt"
	"iter"
	"strings"

	"github.com/l1jgo/doregistry/internal/core/hierarchy"
)

// AllZones selects every zone of a parent.
const AllZones = hierarchy.AllZones

func (c *Collection) keep(filter Filter) func(DoID) bool {
	if filter == nil {
		return nil
	}
	return hierarchy.Resolved[Object](c.Get, filter)
}

// LookupIDs yields the ids under parent (restricted to zone unless AllZones)
// that resolve and pass filter. Restartable; each pass is a fresh snapshot.
func (c *Collection) LookupIDs(parent DoID, zone ZoneID, filter Filter) iter.Seq[DoID] {
	return c.index.Lookup(parent, zone, c.keep(filter))
}

func (c *Collection) IDs(parent DoID, zone ZoneID, filter Filter) []DoID {
	return c.index.IDs(parent, zone, c.keep(filter))
}

// Objects resolves IDs against the authoritative table. Ids indexed but no
// longer in the table are skipped.
func (c *Collection) Objects(parent DoID, zone ZoneID, filter Filter) []Object {
	var objs []Object
	for id := range c.LookupIDs(parent, zone, filter) {
		if obj, ok := c.Get(id); ok {
			objs = append(objs, obj)
		}
	}
	return objs
}

// ObjectsInZone returns a fresh id→object map; callers may mutate it.
func (c *Collection) ObjectsInZone(parent DoID, zone ZoneID) map[DoID]Object {
	return c.ObjectsOfClassInZone(parent, zone, nil)
}

// ObjectsOfClassInZone is ObjectsInZone restricted by filter.
func (c *Collection) ObjectsOfClassInZone(parent DoID, zone ZoneID, filter Filter) map[DoID]Object {
	out := make(map[DoID]Object)
	for id := range c.LookupIDs(parent, zone, filter) {
		if obj, ok := c.Get(id); ok {
			out[id] = obj
		}
	}
	return out
}

// AllOfType returns every authoritative object of type T, by id.
func AllOfType[T any](c *Collection) []T {
	var out []T
	for _, id := range c.sortedIDs(ViewAuthoritative) {
		if t, ok := c.tables[ViewAuthoritative][id].(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// FindAnyOfType returns the lowest-id object of type T.
func FindAnyOfType[T any](c *Collection) (T, bool) {
	for _, id := range c.sortedIDs(ViewAuthoritative) {
		if t, ok := c.tables[ViewAuthoritative][id].(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func CountOfType[T any](c *Collection) int {
	n := 0
	for _, obj := range c.tables[ViewAuthoritative] {
		if _, ok := obj.(T); ok {
			n++
		}
	}
	return n
}

// OwnerViewsOfType scans the owner-view table.
func OwnerViewsOfType[T any](c *Collection) ([]T, error) {
	if _, err := c.table(ViewOwner); err != nil {
		return nil, err
	}
	var out []T
	for _, id := range c.sortedIDs(ViewOwner) {
		if t, ok := c.tables[ViewOwner][id].(T); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func OwnerViewIDsOfType[T any](c *Collection) ([]DoID, error) {
	if _, err := c.table(ViewOwner); err != nil {
		return nil, err
	}
	var out []DoID
	for _, id := range c.sortedIDs(ViewOwner) {
		if _, ok := c.tables[ViewOwner][id].(T); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Find returns the first object, by id, whose printed form contains s.
func (c *Collection) Find(s string) (Object, bool) {
	for _, id := range c.sortedIDs(ViewAuthoritative) {
		obj := c.tables[ViewAuthoritative][id]
		if strings.Contains(fmt.Sprint(obj), s) {
			return obj, true
		}
	}
	return nil, false
}

func (c *Collection) FindAll(s string) []Object {
	var out []Object
	for _, id := range c.sortedIDs(ViewAuthoritative) {
		obj := c.tables[ViewAuthoritative][id]
		if strings.Contains(fmt.Sprint(obj), s) {
			out = append(out, obj)
		}
	}
	return out
}

// CallbackWithDo calls fn with the object now if it is registered, or once
// it gets registered.
func (c *Collection) CallbackWithDo(id DoID, fn func(Object)) {
	if obj, ok := c.Get(id); ok {
		fn(obj)
		return
	}
	c.pending[id] = append(c.pending[id], fn)
}

// CallbackWithOwnerView calls fn only if the owner view is present.
func (c *Collection) CallbackWithOwnerView(id DoID, fn func(Object)) error {
	obj, ok, err := c.GetOwnerView(id)
	if err != nil {
		return err
	}
	if ok {
		fn(obj)
	}
	return nil
}

// PendingCallbacks returns the number of ids with parked callbacks.
func (c *Collection) PendingCallbacks() int { return len(c.pending) }

func (c *Collection) firePending(obj Object) {
	fns, ok := c.pending[obj.DoID()]
	if !ok {
		return
	}
	delete(c.pending, obj.DoID())
	for _, fn := range fns {
		fn(obj)
	}
}
