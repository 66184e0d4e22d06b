package world

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/doregistry/internal/config"
	"github.com/l1jgo/doregistry/internal/core/hierarchy"
)

type hookCall struct {
	Child DoID
	Zone  ZoneID
}

// node is a parent-capable test object that records hook calls.
type node struct {
	Base
	arrivals []hookCall
	leaves   []hookCall
	onArrive func(child Object, zone ZoneID)
	onLeave  func(child Object, zone ZoneID)
}

func newNode(id DoID) *node {
	return &node{Base: NewBase(id, "DistributedNode")}
}

func (n *node) HandleChildArrive(child Object, zone ZoneID) {
	n.arrivals = append(n.arrivals, hookCall{Child: child.DoID(), Zone: zone})
	if n.onArrive != nil {
		n.onArrive(child, zone)
	}
}

func (n *node) HandleChildLeave(child Object, zone ZoneID) {
	n.leaves = append(n.leaves, hookCall{Child: child.DoID(), Zone: zone})
	if n.onLeave != nil {
		n.onLeave(child, zone)
	}
}

// avatar has no hooks.
type avatar struct {
	Base
	checked []DoID
}

func newAvatar(id DoID, name string) *avatar {
	a := &avatar{Base: NewBase(id, "DistributedAvatar")}
	a.SetName(name)
	return a
}

func (a *avatar) CheckParentAssignment(parent DoID) {
	a.checked = append(a.checked, parent)
}

type item struct {
	Base
}

func newItem(id DoID) *item {
	return &item{Base: NewBase(id, "DistributedItem")}
}

func at(parent DoID, zone ZoneID) Location {
	return hierarchy.At(parent, zone)
}

func newTestCollection(t *testing.T, cfg config.RegistryConfig) (*Collection, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	return NewCollection(cfg, zap.New(core)), logs
}

func defaultRegistry() config.RegistryConfig {
	return config.Defaults().Registry
}

// assertAgreement checks that every located object is indexed at exactly its
// stored location and that the index holds nothing else.
func assertAgreement(t *testing.T, c *Collection) {
	t.Helper()
	located := 0
	for id, obj := range c.tables[ViewAuthoritative] {
		loc, ok := obj.Location()
		got, indexed := c.index.LocationOf(id)
		if !ok {
			if indexed {
				t.Errorf("doId %d detached but indexed at %s", id, got)
			}
			continue
		}
		located++
		if !indexed || got != loc {
			t.Errorf("doId %d at %s but indexed at %s (%v)", id, loc, got, indexed)
		}
	}
	if c.index.Len() != located {
		t.Errorf("index holds %d ids, %d objects are located", c.index.Len(), located)
	}
	if (c.index.Len() == 0) != c.index.IsEmpty() {
		t.Errorf("IsEmpty()=%v with %d ids", c.index.IsEmpty(), c.index.Len())
	}
}
