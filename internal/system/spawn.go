package system

import (
	"errors"

	"go.uber.org/zap"

	"github.com/l1jgo/doregistry/internal/core/event"
	"github.com/l1jgo/doregistry/internal/scripting"
	"github.com/l1jgo/doregistry/internal/world"
)

// plainObject is the local implementation of classes without a script.
type plainObject struct {
	world.Base
}

// Spawner applies generate, location and delete events to the registry.
// Classes registered by a script get scripted parent hooks.
type Spawner struct {
	reg     *world.Collection
	scripts *scripting.Engine // nil = no scripted classes
	log     *zap.Logger
}

func NewSpawner(reg *world.Collection, scripts *scripting.Engine, log *zap.Logger) *Spawner {
	return &Spawner{reg: reg, scripts: scripts, log: log}
}

// Subscribe registers the spawner's handlers on the bus.
func (s *Spawner) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, s.handleGenerate)
	event.Subscribe(bus, s.reg.HandleObjectLocation)
	event.Subscribe(bus, s.handleDelete)
}

func (s *Spawner) newObject(ev event.ObjectGenerate) world.Object {
	if s.scripts != nil && s.scripts.Handles(ev.Class) {
		o := s.scripts.NewObject(ev.DoID, ev.Class)
		o.SetName(ev.Name)
		return o
	}
	o := &plainObject{Base: world.NewBase(ev.DoID, ev.Class)}
	o.SetName(ev.Name)
	return o
}

func (s *Spawner) handleGenerate(ev event.ObjectGenerate) {
	obj := s.newObject(ev)

	var err error
	if ev.OwnerView {
		err = s.reg.AddOwnerView(obj)
	} else {
		err = s.reg.AddObjectAt(obj, ev.Location)
	}
	if err != nil {
		// duplicates are logged by the collection and still replace the older object
		if !errors.Is(err, world.ErrDuplicateID) {
			s.log.Error("generate failed",
				zap.Uint32("do_id", uint32(ev.DoID)),
				zap.String("class", ev.Class),
				zap.Error(err))
		}
		return
	}
	s.log.Debug("generated",
		zap.Uint32("do_id", uint32(ev.DoID)),
		zap.String("class", ev.Class),
		zap.Bool("owner_view", ev.OwnerView))
}

func (s *Spawner) handleDelete(ev event.ObjectDelete) {
	obj, ok := s.reg.Get(ev.DoID)
	if !ok {
		s.log.Warn("delete for non-existent object", zap.Uint32("do_id", uint32(ev.DoID)))
		return
	}
	s.reg.RemoveObject(obj)
}
