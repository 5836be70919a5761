package system

import (
	"testing"
	"time"
)

type recordSystem struct {
	phase Phase
	name  string
	log   *[]string
}

func (s *recordSystem) Phase() Phase { return s.phase }
func (s *recordSystem) Update(time.Duration) {
	*s.log = append(*s.log, s.name)
}

func TestRunner_TicksInPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	// Registered out of order on purpose.
	r.Register(&recordSystem{phase: PhaseCleanup, name: "cleanup", log: &log})
	r.Register(&recordSystem{phase: PhaseInput, name: "input", log: &log})
	r.Register(&recordSystem{phase: PhaseUpdate, name: "update", log: &log})
	r.Register(&recordSystem{phase: PhasePreUpdate, name: "pre", log: &log})

	r.Tick(16 * time.Millisecond)
	want := []string{"input", "pre", "update", "cleanup"}
	if len(log) != len(want) {
		t.Fatalf("got %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("phase order: got %v, want %v", log, want)
		}
	}
}

func TestRunner_LateRegistrationResorts(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recordSystem{phase: PhaseUpdate, name: "update", log: &log})
	r.Tick(time.Millisecond)

	r.Register(&recordSystem{phase: PhaseInput, name: "input", log: &log})
	log = log[:0]
	r.Tick(time.Millisecond)
	if len(log) != 2 || log[0] != "input" {
		t.Fatalf("late registration should re-sort: %v", log)
	}
}
