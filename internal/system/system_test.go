package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/doregistry/internal/config"
	"github.com/l1jgo/doregistry/internal/core/event"
	"github.com/l1jgo/doregistry/internal/core/hierarchy"
	coresys "github.com/l1jgo/doregistry/internal/core/system"
	"github.com/l1jgo/doregistry/internal/data"
	"github.com/l1jgo/doregistry/internal/scripting"
	"github.com/l1jgo/doregistry/internal/world"
)

type harness struct {
	reg      *world.Collection
	runner   *coresys.Runner
	replay   *ReplaySystem
	dispatch *DispatchSystem
	logs     *observer.ObservedLogs
}

func newHarness(t *testing.T, scenario *data.Scenario, scripts *scripting.Engine) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	cfg := config.Defaults().Registry
	cfg.HasOwnerView = true
	reg := world.NewCollection(cfg, log)
	if scripts != nil {
		scripts.Bind(reg)
	}

	bus := event.NewBus()
	NewSpawner(reg, scripts, log).Subscribe(bus)

	h := &harness{
		reg:      reg,
		runner:   coresys.NewRunner(),
		replay:   NewReplaySystem(scenario, bus, log),
		dispatch: NewDispatchSystem(bus),
		logs:     logs,
	}
	// registered out of phase order on purpose
	h.runner.Register(NewCleanupSystem(reg, log))
	h.runner.Register(h.dispatch)
	h.runner.Register(h.replay)
	return h
}

func (h *harness) run() {
	for !h.replay.Done() {
		h.runner.Tick(time.Millisecond)
	}
}

func parse(t *testing.T, src string) *data.Scenario {
	t.Helper()
	s, err := data.ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestReplay_EventsReachRegistrySameTick(t *testing.T) {
	h := newHarness(t, parse(t, `
ticks:
  - generate:
      - { do_id: 10, class: DistributedNode }
      - { do_id: 11, class: DistributedAvatar, name: Ann, parent: 10, zone: 3 }
  - location:
      - { do_id: 11, parent: 10, zone: 4 }
  - delete: [11]
`), nil)

	h.runner.Tick(time.Millisecond)
	assert.Equal(t, []hierarchy.DoID{11}, h.reg.IDs(10, 3, nil))
	assert.Equal(t, 2, h.dispatch.Dispatched())

	h.runner.Tick(time.Millisecond)
	assert.Empty(t, h.reg.IDs(10, 3, nil))
	assert.Equal(t, []hierarchy.DoID{11}, h.reg.IDs(10, 4, nil))

	h.runner.Tick(time.Millisecond)
	assert.False(t, h.reg.IsRegistered(11))
	assert.True(t, h.reg.IndexEmpty())
	assert.True(t, h.replay.Done())
	assert.Equal(t, 3, h.replay.Replayed())

	// further ticks are harmless
	h.runner.Tick(time.Millisecond)
	assert.Equal(t, uint64(4), h.runner.Ticks())
	assert.Equal(t, 4, h.dispatch.Dispatched())
}

func TestSpawner_PlainObjects(t *testing.T) {
	h := newHarness(t, parse(t, `
ticks:
  - generate:
      - { do_id: 7, class: DistributedAvatar, name: Bo }
      - { do_id: 8, class: DistributedAvatar, name: Bo, owner_view: true }
`), nil)
	h.run()

	obj, ok := h.reg.Get(7)
	require.True(t, ok)
	assert.Equal(t, "DistributedAvatar", obj.ClassName())
	_, located := obj.Location()
	assert.False(t, located)
	assert.Equal(t, "Bo", obj.(world.Named).Name())

	_, ok = h.reg.Get(8)
	assert.False(t, ok, "owner views stay out of the authoritative table")
	ov, ok, err := h.reg.GetOwnerView(8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hierarchy.DoID(8), ov.DoID())
}

func TestSpawner_WarnsOnUnknownObjects(t *testing.T) {
	h := newHarness(t, parse(t, `
ticks:
  - location:
      - { do_id: 42, parent: 1, zone: 1 }
    delete: [43]
`), nil)
	h.run()

	assert.Equal(t, 1, h.logs.FilterMessage("location update for non-existent object").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("delete for non-existent object").Len())
}

func TestSpawner_DuplicateGenerateReplaces(t *testing.T) {
	h := newHarness(t, parse(t, `
ticks:
  - generate:
      - { do_id: 1, class: DistributedNode }
      - { do_id: 2, class: DistributedItem, parent: 1, zone: 1 }
  - generate:
      - { do_id: 2, class: DistributedAvatar, parent: 1, zone: 9 }
`), nil)
	h.run()

	obj, ok := h.reg.Get(2)
	require.True(t, ok)
	assert.Equal(t, "DistributedAvatar", obj.ClassName())
	assert.Empty(t, h.reg.IDs(1, 1, nil))
	assert.Equal(t, []hierarchy.DoID{2}, h.reg.IDs(1, 9, nil))
	assert.Equal(t, 1, h.logs.FilterMessage("duplicate doId").Len())
	assert.Zero(t, h.logs.FilterMessage("generate failed").Len())
}

func TestReplay_BundledScenario(t *testing.T) {
	scenario, err := data.LoadScenario("../../data/yaml/scenario.yaml")
	require.NoError(t, err)
	core, scriptLogs := observer.New(zapcore.InfoLevel)
	scripts, err := scripting.NewEngine("../../scripts", zap.New(core))
	require.NoError(t, err)
	defer scripts.Close()
	require.True(t, scripts.Handles("DistributedDistrict"))

	h := newHarness(t, scenario, scripts)
	h.run()
	assert.Equal(t, uint64(5), h.runner.Ticks())

	// Clarabelle walked into the treasure's zone and collected it
	assert.False(t, h.reg.IsRegistered(200000))
	assert.Equal(t, 1, scriptLogs.FilterMessageSnippet("collects treasure 200000").Len())

	assert.False(t, h.reg.IsRegistered(4100))
	assert.Equal(t, []hierarchy.DoID{4000, 4001}, h.reg.IDs(4618, 2, nil))
	assert.Equal(t, []hierarchy.DoID{100000}, h.reg.IDs(4001, 5000, nil))
	assert.Empty(t, h.reg.IDs(4000, hierarchy.AllZones, nil))

	clarabelle, ok := h.reg.Get(100001)
	require.True(t, ok)
	_, located := clarabelle.Location()
	assert.False(t, located)

	assert.Equal(t, 4, h.reg.Len(world.ViewAuthoritative))
	assert.Equal(t, 1, h.reg.Len(world.ViewOwner))
	assert.Equal(t, 1, h.logs.FilterMessage("location update for non-existent object").Len())
	assert.Zero(t, h.logs.FilterMessage("parent not present").Len())

	require.NoError(t, h.reg.DeleteAll())
	assert.True(t, h.reg.IndexEmpty())
}
