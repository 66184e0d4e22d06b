package world

import (
	"fmt"

	"github.com/l1jgo/doregistry/internal/core/hierarchy"
)

type (
	DoID     = hierarchy.DoID
	ZoneID   = hierarchy.ZoneID
	Location = hierarchy.Location
)

// Object is a locally cached shadow of a server-owned entity.
// Concrete types embed Base; only the Collection changes their location.
type Object interface {
	DoID() DoID
	Location() (Location, bool)
	ClassName() string
	base() *Base
}

// ChildArriver is implemented by parents that want to know when a child
// starts living under them.
type ChildArriver interface {
	HandleChildArrive(child Object, zone ZoneID)
}

// ChildLeaver is implemented by parents that want to know when a child
// leaves one of their zones. Called before the index forgets the child.
type ChildLeaver interface {
	HandleChildLeave(child Object, zone ZoneID)
}

// ParentChecker is called with the new parent id right before an object is
// stored under it.
type ParentChecker interface {
	CheckParentAssignment(parent DoID)
}

// Named objects show their name in diagnostics.
type Named interface {
	Name() string
}

// Base carries the identity and location of a distributed object.
type Base struct {
	doID    DoID
	class   string
	name    string
	loc     Location
	located bool
}

func NewBase(id DoID, class string) Base {
	return Base{doID: id, class: class}
}

func (b *Base) base() *Base       { return b }
func (b *Base) DoID() DoID        { return b.doID }
func (b *Base) ClassName() string { return b.class }
func (b *Base) Name() string      { return b.name }
func (b *Base) SetName(n string)  { b.name = n }

// Location returns the current (parent, zone), or false when detached.
func (b *Base) Location() (Location, bool) {
	return b.loc, b.located
}

func (b *Base) ParentID() DoID {
	if !b.located {
		return hierarchy.BadDoID
	}
	return b.loc.Parent
}

func (b *Base) ZoneID() ZoneID {
	if !b.located {
		return hierarchy.BadZoneID
	}
	return b.loc.Zone
}

// Place declares the location an object arrives with. Only meaningful
// before the object is registered; AddObject reads it and indexes it.
func (b *Base) Place(loc Location) {
	b.set(loc)
}

func (b *Base) set(loc Location) {
	if !loc.IsValid() {
		b.detach()
		return
	}
	b.loc, b.located = loc, true
}

func (b *Base) detach() {
	b.loc, b.located = Location{}, false
}

func (b *Base) String() string {
	if b.located {
		return fmt.Sprintf("%s(%d) %q at %s", b.class, b.doID, b.name, b.loc)
	}
	return fmt.Sprintf("%s(%d) %q detached", b.class, b.doID, b.name)
}

// Filter selects objects in typed queries. A nil Filter keeps everything.
type Filter func(Object) bool

// OfType keeps objects whose dynamic type implements or is T.
func OfType[T any]() Filter {
	return func(o Object) bool {
		_, ok := o.(T)
		return ok
	}
}

// OfClass keeps objects with the given class tag.
func OfClass(name string) Filter {
	return func(o Object) bool { return o.ClassName() == name }
}
