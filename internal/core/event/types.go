package event

// WantedLevelChanged fires when the target's heat moves between levels.
type WantedLevelChanged struct {
	Old int
	New int
}

// UnitDispatched fires when the pursuit director spawns or reassigns a
// unit toward the target.
type UnitDispatched struct {
	UnitID    int32
	SpawnMode string // "ahead" or "behind"
}

// RoadblockPlaced fires after tiles were blocked across a corridor.
type RoadblockPlaced struct {
	X     float64
	Y     float64
	Tiles int
}

// PursuitStateChanged fires on director transitions (chasing, searching,
// disengaged).
type PursuitStateChanged struct {
	Old string
	New string
}
