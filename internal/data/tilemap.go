package data

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	MapID    int16   `yaml:"map_id"`
	Name     string  `yaml:"name"`
	Width    int32   `yaml:"width"`
	Height   int32   `yaml:"height"`
	TileSize float64 `yaml:"tile_size"`
}

// Tile flag layout, one byte per tile:
//
//	bits 0-1  surface class (ground / road / sidewalk / wall)
//	bits 2-4  one-way travel code (none / E / W / S / N)
//	bits 5-6  lane count minus one (1..4 lanes)
//	bit  7    dynamic block (roadblock occupies the tile)
const (
	tileClassMask   byte = 0x03
	tileOneWayShift      = 2
	tileOneWayMask  byte = 0x1C
	tileLaneShift        = 5
	tileLaneMask    byte = 0x60
	tileBlocked     byte = 0x80
)

// Surface classes (bits 0-1).
const (
	ClassGround   byte = 0
	ClassRoad     byte = 1
	ClassSidewalk byte = 2
	ClassWall     byte = 3
)

// OneWay is the per-tile travel restriction code.
type OneWay byte

const (
	OneWayNone OneWay = 0
	OneWayE    OneWay = 1
	OneWayW    OneWay = 2
	OneWayS    OneWay = 3
	OneWayN    OneWay = 4
)

// Allows reports whether a tile with this code permits travel in the given
// cardinal direction. A code of none permits everything.
func (o OneWay) Allows(dx, dy int) bool {
	switch o {
	case OneWayNone:
		return true
	case OneWayE:
		return dx == 1 && dy == 0
	case OneWayW:
		return dx == -1 && dy == 0
	case OneWayS:
		return dx == 0 && dy == 1
	case OneWayN:
		return dx == 0 && dy == -1
	}
	return false
}

// TileMap is the read surface the navigation core depends on. Tiles are a
// flat array [tx * height + ty], row-major by X. Accessed only from the
// game loop goroutine; the single mutation point is the dynamic block bit.
type TileMap struct {
	Info  MapInfo
	tiles []byte
}

// MapTable provides per-map tile data and metadata lookups.
type MapTable struct {
	maps map[int16]*TileMap
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMaps loads map metadata from YAML and tile grids from CSV text files.
// A missing tile file is non-fatal; the map is skipped.
func LoadMaps(yamlPath, tileDir string) (*MapTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &MapTable{maps: make(map[int16]*TileMap, len(file.Maps))}
	for _, info := range file.Maps {
		if info.Width <= 0 || info.Height <= 0 {
			continue
		}
		if info.TileSize <= 0 {
			info.TileSize = 32
		}
		tiles, err := loadTileFile(tileDir, int(info.MapID), int(info.Width), int(info.Height))
		if err != nil {
			continue
		}
		table.maps[info.MapID] = &TileMap{Info: info, tiles: tiles}
	}
	return table, nil
}

// loadTileFile reads a CSV tile file: each line is a row of comma-separated
// byte values, file rows = Y lines, columns = X values.
func loadTileFile(dir string, mapID, width, height int) ([]byte, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tiles := make([]byte, width*height)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	y := 0
	for scanner.Scan() && y < height {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= width {
				break
			}
			val, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 16)
			if err != nil {
				val = 0
			}
			tiles[x*height+y] = byte(val)
			x++
		}
		y++
	}
	return tiles, scanner.Err()
}

// Count returns the number of maps loaded with tile data.
func (t *MapTable) Count() int { return len(t.maps) }

// Get returns a map by id, or nil if not loaded.
func (t *MapTable) Get(mapID int16) *TileMap { return t.maps[mapID] }

// NewTileMap creates an empty (all-ground) map. Used by the offline tools
// and by tests that stamp their own tiles.
func NewTileMap(mapID int16, width, height int32, tileSize float64) *TileMap {
	return &TileMap{
		Info:  MapInfo{MapID: mapID, Width: width, Height: height, TileSize: tileSize},
		tiles: make([]byte, int(width)*int(height)),
	}
}

// FromStrings builds a map from ASCII rows, one rune per tile:
//
//	'.' ground   '#' wall   'r' road   's' sidewalk
//	'>' '<' 'v' '^'  one-way road (E/W/S/N)
//	'2'..'4'        road with that many lanes
//
// Used by the graphdump tool's ASCII mode and throughout the tests.
func FromStrings(rows []string, tileSize float64) *TileMap {
	h := int32(len(rows))
	w := int32(0)
	for _, r := range rows {
		if int32(len(r)) > w {
			w = int32(len(r))
		}
	}
	m := NewTileMap(0, w, h, tileSize)
	for y, row := range rows {
		for x, ch := range row {
			var tile byte
			switch ch {
			case '#':
				tile = ClassWall
			case 'r':
				tile = ClassRoad
			case 's':
				tile = ClassSidewalk
			case '>':
				tile = ClassRoad | byte(OneWayE)<<tileOneWayShift
			case '<':
				tile = ClassRoad | byte(OneWayW)<<tileOneWayShift
			case 'v':
				tile = ClassRoad | byte(OneWayS)<<tileOneWayShift
			case '^':
				tile = ClassRoad | byte(OneWayN)<<tileOneWayShift
			case '2', '3', '4':
				tile = ClassRoad | byte(ch-'1')<<tileLaneShift
			default:
				tile = ClassGround
			}
			m.tiles[x*int(h)+y] = tile
		}
	}
	return m
}

func (m *TileMap) Width() int32      { return m.Info.Width }
func (m *TileMap) Height() int32     { return m.Info.Height }
func (m *TileMap) TileSize() float64 { return m.Info.TileSize }

// InBounds reports whether the tile coordinate lies inside the grid.
func (m *TileMap) InBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < int(m.Info.Width) && ty < int(m.Info.Height)
}

// TileAt returns the raw tile byte. Out of bounds reads as a wall so the
// map edge behaves like a solid border.
func (m *TileMap) TileAt(tx, ty int) byte {
	if !m.InBounds(tx, ty) {
		return ClassWall
	}
	return m.tiles[tx*int(m.Info.Height)+ty]
}

// IsSolidTile reports whether a tile byte is impassable terrain. The
// dynamic block bit counts as solid so roadblocks divert searches.
func IsSolidTile(tile byte) bool {
	return tile&tileClassMask == ClassWall || tile&tileBlocked != 0
}

// ClassAt returns the surface class at a tile coordinate.
func (m *TileMap) ClassAt(tx, ty int) byte {
	return m.TileAt(tx, ty) & tileClassMask
}

// SolidAt reports whether the tile at (tx, ty) is impassable.
func (m *TileMap) SolidAt(tx, ty int) bool {
	return IsSolidTile(m.TileAt(tx, ty))
}

// OneWayAt returns the one-way travel code at a tile coordinate.
func (m *TileMap) OneWayAt(tx, ty int) OneWay {
	return OneWay((m.TileAt(tx, ty) & tileOneWayMask) >> tileOneWayShift)
}

// LaneCountAt returns the lane count at a tile coordinate, always 1..4.
func (m *TileMap) LaneCountAt(tx, ty int) int {
	return int((m.TileAt(tx, ty)&tileLaneMask)>>tileLaneShift) + 1
}

// SetTile overwrites the tile byte at (tx, ty). No-op out of bounds.
func (m *TileMap) SetTile(tx, ty int, tile byte) {
	if m.InBounds(tx, ty) {
		m.tiles[tx*int(m.Info.Height)+ty] = tile
	}
}

// SetBlocked sets or clears the dynamic block bit (roadblock placement).
func (m *TileMap) SetBlocked(tx, ty int, blocked bool) {
	if !m.InBounds(tx, ty) {
		return
	}
	idx := tx*int(m.Info.Height) + ty
	if blocked {
		m.tiles[idx] |= tileBlocked
	} else {
		m.tiles[idx] &^= tileBlocked
	}
}

// WorldToTile converts a world position to the tile containing it. Floor
// keeps exact tile boundaries on the correct side for negative coordinates.
func (m *TileMap) WorldToTile(x, y float64) (int, int) {
	ts := m.Info.TileSize
	return int(math.Floor(x / ts)), int(math.Floor(y / ts))
}

// TileToWorld converts a tile coordinate to its world-space center.
func (m *TileMap) TileToWorld(tx, ty int) (float64, float64) {
	ts := m.Info.TileSize
	return (float64(tx) + 0.5) * ts, (float64(ty) + 0.5) * ts
}

// AabbHitsSolid reports whether any tile overlapped by the axis-aligned box
// is solid. Used by line-of-sight sampling and spawn validation.
func (m *TileMap) AabbHitsSolid(minX, minY, maxX, maxY float64) bool {
	tx0, ty0 := m.WorldToTile(minX, minY)
	tx1, ty1 := m.WorldToTile(maxX, maxY)
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			if m.SolidAt(tx, ty) {
				return true
			}
		}
	}
	return false
}
