package hierarchy

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Index maps parent → zone → set of object ids.
// Empty zone sets and parent entries are pruned on delete, so IsEmpty is
// exact. Accessed only from the game loop goroutine, no locks.
type Index struct {
	parents map[DoID]map[ZoneID]map[DoID]struct{}
	where   map[DoID]Location // reverse map, one bucket per id
}

func NewIndex() *Index {
	return &Index{
		parents: make(map[DoID]map[ZoneID]map[DoID]struct{}),
		where:   make(map[DoID]Location),
	}
}

// Store puts id into the (parent, zone) bucket.
// Storing into the bucket the id already occupies is a no-op.
func (x *Index) Store(id DoID, loc Location) error {
	if !loc.IsValid() {
		return fmt.Errorf("store doId %d at %s: %w", id, loc, ErrInvalidLocation)
	}
	if cur, ok := x.where[id]; ok {
		if cur == loc {
			return nil
		}
		return &DuplicateLocationError{ID: id, Existing: cur, Wanted: loc}
	}

	zones := x.parents[loc.Parent]
	if zones == nil {
		zones = make(map[ZoneID]map[DoID]struct{})
		x.parents[loc.Parent] = zones
	}
	set := zones[loc.Zone]
	if set == nil {
		set = make(map[DoID]struct{})
		zones[loc.Zone] = set
	}
	set[id] = struct{}{}
	x.where[id] = loc
	return nil
}

// Delete takes id out of the (parent, zone) bucket. Absent ids are ignored.
func (x *Index) Delete(id DoID, loc Location) {
	zones := x.parents[loc.Parent]
	if zones == nil {
		return
	}
	set := zones[loc.Zone]
	if set == nil {
		return
	}
	if _, ok := set[id]; !ok {
		return
	}
	delete(set, id)
	delete(x.where, id)
	if len(set) == 0 {
		delete(zones, loc.Zone)
		if len(zones) == 0 {
			delete(x.parents, loc.Parent)
		}
	}
}

// Lookup yields the ids under parent, restricted to zone unless zone is
// AllZones. keep may be nil. Every iteration copies the matching ids before
// the first yield, so the caller may mutate the index while ranging.
func (x *Index) Lookup(parent DoID, zone ZoneID, keep func(DoID) bool) iter.Seq[DoID] {
	return func(yield func(DoID) bool) {
		for _, id := range x.snapshot(parent, zone) {
			if keep != nil && !keep(id) {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

// IDs is the eager form of Lookup.
func (x *Index) IDs(parent DoID, zone ZoneID, keep func(DoID) bool) []DoID {
	ids := make([]DoID, 0, 8)
	for id := range x.Lookup(parent, zone, keep) {
		ids = append(ids, id)
	}
	return ids
}

func (x *Index) snapshot(parent DoID, zone ZoneID) []DoID {
	zones := x.parents[parent]
	if zones == nil {
		return nil
	}
	if zone != AllZones {
		return slices.Sorted(maps.Keys(zones[zone]))
	}
	var ids []DoID
	for _, z := range slices.Sorted(maps.Keys(zones)) {
		ids = append(ids, slices.Sorted(maps.Keys(zones[z]))...)
	}
	return ids
}

// Resolved builds a Lookup filter from an id resolver and an object filter.
// Ids that do not resolve are dropped. A nil filter keeps every resolved id.
func Resolved[T any](resolve func(DoID) (T, bool), filter func(T) bool) func(DoID) bool {
	return func(id DoID) bool {
		obj, ok := resolve(id)
		if !ok {
			return false
		}
		return filter == nil || filter(obj)
	}
}

// Contains reports whether id is indexed anywhere.
func (x *Index) Contains(id DoID) bool {
	_, ok := x.where[id]
	return ok
}

// LocationOf returns the bucket id is indexed under.
func (x *Index) LocationOf(id DoID) (Location, bool) {
	loc, ok := x.where[id]
	return loc, ok
}

// Parents returns the parent ids that have at least one child, sorted.
func (x *Index) Parents() []DoID {
	return slices.Sorted(maps.Keys(x.parents))
}

// Zones returns the non-empty zones of parent, sorted.
func (x *Index) Zones(parent DoID) []ZoneID {
	return slices.Sorted(maps.Keys(x.parents[parent]))
}

// Len returns the number of indexed ids.
func (x *Index) Len() int { return len(x.where) }

func (x *Index) IsEmpty() bool { return len(x.parents) == 0 }

// Clear drops everything. Only used to recover from a detected residue.
func (x *Index) Clear() {
	clear(x.parents)
	clear(x.where)
}

func (x *Index) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range x.Parents() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d: {", p)
		for j, z := range x.Zones(p) {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d: %v", z, x.IDs(p, z, nil))
		}
		sb.WriteByte('}')
	}
	sb.WriteByte('}')
	return sb.String()
}
