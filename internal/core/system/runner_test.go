package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunner_PhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"update-a", PhaseUpdate, &log})
	r.Register(recorder{"input", PhaseInput, &log})
	r.Register(recorder{"update-b", PhaseUpdate, &log})
	r.Register(recorder{"dispatch", PhaseDispatch, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input", "dispatch", "update-a", "update-b", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Ticks())

	log = log[:0]
	r.Register(recorder{"late-input", PhaseInput, &log})
	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input", "late-input", "dispatch", "update-a", "update-b", "cleanup"}, log)
}
