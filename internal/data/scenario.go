package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/doregistry/internal/core/event"
	"github.com/l1jgo/doregistry/internal/core/hierarchy"
)

// GenerateEntry creates one object. Parent/zone 0/0 leaves it detached.
type GenerateEntry struct {
	DoID      uint32 `yaml:"do_id"`
	Class     string `yaml:"class"`
	Name      string `yaml:"name"`
	Parent    uint32 `yaml:"parent"`
	Zone      uint32 `yaml:"zone"`
	OwnerView bool   `yaml:"owner_view"`
}

// LocationEntry moves one object.
type LocationEntry struct {
	DoID   uint32 `yaml:"do_id"`
	Parent uint32 `yaml:"parent"`
	Zone   uint32 `yaml:"zone"`
}

// Tick groups the events delivered together. Within a tick, generates are
// emitted first, then location updates, then deletes.
type Tick struct {
	Generate []GenerateEntry `yaml:"generate"`
	Location []LocationEntry `yaml:"location"`
	Delete   []uint32        `yaml:"delete"`
}

// Scenario is a scripted sequence of registry events.
type Scenario struct {
	Name  string `yaml:"name"`
	Ticks []Tick `yaml:"ticks"`
}

// LoadScenario loads a scenario yaml file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, t := range s.Ticks {
		for _, g := range t.Generate {
			if g.DoID == 0 {
				return nil, fmt.Errorf("tick %d: generate without do_id", i)
			}
			if g.Class == "" {
				return nil, fmt.Errorf("tick %d: doId %d has no class", i, g.DoID)
			}
		}
		for _, l := range t.Location {
			if l.DoID == 0 {
				return nil, fmt.Errorf("tick %d: location without do_id", i)
			}
		}
	}
	return &s, nil
}

// Count returns the number of ticks.
func (s *Scenario) Count() int { return len(s.Ticks) }

// Events converts one tick into bus events, in delivery order.
func (t Tick) Events() []any {
	evs := make([]any, 0, len(t.Generate)+len(t.Location)+len(t.Delete))
	for _, g := range t.Generate {
		evs = append(evs, event.ObjectGenerate{
			DoID:      hierarchy.DoID(g.DoID),
			Class:     g.Class,
			Name:      g.Name,
			Location:  hierarchy.At(hierarchy.DoID(g.Parent), hierarchy.ZoneID(g.Zone)),
			OwnerView: g.OwnerView,
		})
	}
	for _, l := range t.Location {
		evs = append(evs, event.ObjectLocation{
			DoID:     hierarchy.DoID(l.DoID),
			Location: hierarchy.At(hierarchy.DoID(l.Parent), hierarchy.ZoneID(l.Zone)),
		})
	}
	for _, id := range t.Delete {
		evs = append(evs, event.ObjectDelete{DoID: hierarchy.DoID(id)})
	}
	return evs
}
