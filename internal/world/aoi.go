package world

// AOIGrid implements a cell-based area-of-interest index over world
// coordinates. Cell size is chosen so a 3x3 neighbourhood of cells covers
// the largest perception radius in the unit tables.
// Accessed only from the game loop goroutine — no locks.

const aoiCellSize = 320.0 // world units

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	c := int32(v / aoiCellSize)
	if v < 0 {
		c--
	}
	return c
}

// AOIGrid tracks which agent ids are in which cells.
type AOIGrid struct {
	cells map[cellKey]map[int32]struct{}
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{cells: make(map[cellKey]map[int32]struct{})}
}

func (g *AOIGrid) key(x, y float64) cellKey {
	return cellKey{cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Add places an agent into the grid.
func (g *AOIGrid) Add(id int32, x, y float64) {
	k := g.key(x, y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[int32]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an agent out of the grid.
func (g *AOIGrid) Remove(id int32, x, y float64) {
	k := g.key(x, y)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an agent's cell when its position changes.
func (g *AOIGrid) Move(id int32, oldX, oldY, newX, newY float64) {
	oldK := g.key(oldX, oldY)
	newK := g.key(newX, newY)
	if oldK == newK {
		return
	}
	g.Remove(id, oldX, oldY)
	g.Add(id, newX, newY)
}

// GetNearby returns all agent ids in the 3x3 cell neighbourhood around the
// given position. Caller does fine-grained distance filtering.
func (g *AOIGrid) GetNearby(x, y float64) []int32 {
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	var result []int32
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := cellKey{cx: cx + dx, cy: cy + dy}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}
