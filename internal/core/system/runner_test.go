package system

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (s recordingSystem) Phase() Phase { return s.phase }

func (s recordingSystem) Update(int64) { *s.log = append(*s.log, s.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recordingSystem{"cleanup", PhaseCleanup, &log})
	r.Register(recordingSystem{"retain", PhaseRetain, &log})
	r.Register(recordingSystem{"sense-a", PhaseSense, &log})
	r.Register(recordingSystem{"sense-b", PhaseSense, &log})

	r.Tick(1)
	require.Equal(t, []string{"sense-a", "sense-b", "retain", "cleanup"}, log)

	log = nil
	r.Register(recordingSystem{"retain-late", PhaseRetain, &log})
	r.Tick(2)
	require.Equal(t, []string{"sense-a", "sense-b", "retain", "retain-late", "cleanup"}, log)
}
