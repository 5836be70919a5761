package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnitTemplate holds static data for a vehicle or pedestrian type loaded
// from YAML: pursuit cruisers, ambient traffic cars, foot patrols.
type UnitTemplate struct {
	UnitID     int32   `yaml:"unit_id"`
	Name       string  `yaml:"name"`
	Role       string  `yaml:"role"` // "pursuit", "traffic", "patrol"
	Mode       string  `yaml:"mode"` // "car" or "ped"
	Speed      float64 `yaml:"speed"`       // world units per second
	SightRange float64 `yaml:"sight_range"` // perception radius, world units
	HP         int32   `yaml:"hp"`
}

// SpawnEntry defines where ambient traffic and patrol units seed.
type SpawnEntry struct {
	UnitID  int32 `yaml:"unit_id"`
	MapID   int16 `yaml:"map_id"`
	TX      int   `yaml:"tx"`
	TY      int   `yaml:"ty"`
	Count   int   `yaml:"count"`
	RandomR int   `yaml:"random_r"` // tile radius for scatter
}

type unitListFile struct {
	Units []UnitTemplate `yaml:"units"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// UnitTable holds all unit templates indexed by UnitID.
type UnitTable struct {
	templates map[int32]*UnitTemplate
}

// LoadUnitTable loads unit templates from a YAML file.
func LoadUnitTable(path string) (*UnitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit_list: %w", err)
	}
	var f unitListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse unit_list: %w", err)
	}
	t := &UnitTable{templates: make(map[int32]*UnitTemplate, len(f.Units))}
	for i := range f.Units {
		u := &f.Units[i]
		if u.Speed <= 0 {
			u.Speed = 60
		}
		if u.Mode == "" {
			u.Mode = "car"
		}
		t.templates[u.UnitID] = u
	}
	return t, nil
}

// NewUnitTable builds a table from templates directly (tools and tests).
func NewUnitTable(units []UnitTemplate) *UnitTable {
	t := &UnitTable{templates: make(map[int32]*UnitTemplate, len(units))}
	for i := range units {
		t.templates[units[i].UnitID] = &units[i]
	}
	return t
}

// FirstByRole returns the template with the lowest unit id for a role, or
// nil when the role has no templates.
func (t *UnitTable) FirstByRole(role string) *UnitTemplate {
	if t == nil {
		return nil
	}
	var best *UnitTemplate
	for _, u := range t.templates {
		if u.Role != role {
			continue
		}
		if best == nil || u.UnitID < best.UnitID {
			best = u
		}
	}
	return best
}

// Get returns the template for a unit id, or nil.
func (t *UnitTable) Get(unitID int32) *UnitTemplate {
	if t == nil {
		return nil
	}
	return t.templates[unitID]
}

// Count returns the number of loaded templates.
func (t *UnitTable) Count() int { return len(t.templates) }

// LoadSpawns loads the spawn list from a YAML file.
func LoadSpawns(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return f.Spawns, nil
}
