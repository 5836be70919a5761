package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: ingest target telemetry
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: pursuit, navigation, traffic logic
	PhasePostUpdate              // 3: roadblock expiry, spawn upkeep
	PhaseCleanup                 // 4: destroy queued agents
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
