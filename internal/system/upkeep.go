package system

import (
	"time"

	coresys "github.com/chasedown/server/internal/core/system"
	"github.com/chasedown/server/internal/world"
)

// UpkeepSystem expires roadblocks so their tiles unblock on schedule.
// Phase 3 (PostUpdate), after all movement for the tick is done.
type UpkeepSystem struct {
	world *world.State
}

func NewUpkeepSystem(ws *world.State) *UpkeepSystem {
	return &UpkeepSystem{world: ws}
}

func (s *UpkeepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *UpkeepSystem) Update(dt time.Duration) {
	s.world.ExpireRoadblocks(dt)
}
