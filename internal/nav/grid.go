package nav

import (
	"container/heap"
	"math"

	"github.com/chasedown/server/internal/data"
)

// Mode selects the grid cost model: cars live on roads, pedestrians on
// sidewalks.
type Mode int

const (
	ModeCar Mode = iota
	ModePed
)

// TileCost returns the traversal cost of a tile for the mode, or +Inf when
// the tile is impassable. Cars strongly prefer road and treat everything
// solid as a wall; pedestrians mildly prefer sidewalk but can cross road
// and ground at a penalty.
func TileCost(m *data.TileMap, mode Mode, tx, ty int) float64 {
	if m.SolidAt(tx, ty) {
		return math.Inf(1)
	}
	switch mode {
	case ModeCar:
		switch m.ClassAt(tx, ty) {
		case data.ClassRoad:
			return 1
		case data.ClassSidewalk:
			return 4
		default:
			return 6
		}
	default:
		switch m.ClassAt(tx, ty) {
		case data.ClassSidewalk:
			return 1
		case data.ClassGround:
			return 1.5
		default:
			return 2
		}
	}
}

type gridNode struct {
	tx, ty int
	g, f   float64
	seq    int // insertion order, the deterministic tie-break
	parent *gridNode
	index  int
}

type gridQueue []*gridNode

func (q gridQueue) Len() int { return len(q) }
func (q gridQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q gridQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *gridQueue) Push(x any) {
	n := x.(*gridNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *gridQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// FindGridPath runs 4-connected A* over raw tiles with a Manhattan
// heuristic. Returns the tile path inclusive of start and goal, or false
// when no path exists within iterCap pop iterations. The cap makes a
// single frame's worst case bounded; exhausting it is a normal "no path".
func FindGridPath(m *data.TileMap, startX, startY, goalX, goalY int, mode Mode, iterCap int) ([][2]int, bool) {
	if math.IsInf(TileCost(m, mode, startX, startY), 1) ||
		math.IsInf(TileCost(m, mode, goalX, goalY), 1) {
		return nil, false
	}
	if startX == goalX && startY == goalY {
		return [][2]int{{startX, startY}}, true
	}

	h := func(tx, ty int) float64 {
		return float64(intAbs(tx-goalX) + intAbs(ty-goalY))
	}
	key := func(tx, ty int) int { return tx*int(m.Height()) + ty }

	seq := 0
	start := &gridNode{tx: startX, ty: startY, g: 0, f: h(startX, startY)}
	open := &gridQueue{}
	heap.Init(open)
	heap.Push(open, start)

	best := map[int]float64{key(startX, startY): 0}
	closed := make(map[int]struct{})

	for iter := 0; open.Len() > 0 && iter < iterCap; iter++ {
		cur := heap.Pop(open).(*gridNode)
		k := key(cur.tx, cur.ty)
		if _, seen := closed[k]; seen {
			continue // stale heap entry
		}
		closed[k] = struct{}{}
		if cur.tx == goalX && cur.ty == goalY {
			return reconstructTiles(cur), true
		}
		for _, d := range cardinals {
			nx, ny := cur.tx+d[0], cur.ty+d[1]
			step := TileCost(m, mode, nx, ny)
			if math.IsInf(step, 1) {
				continue
			}
			nk := key(nx, ny)
			if _, seen := closed[nk]; seen {
				continue
			}
			tg := cur.g + step
			if prev, ok := best[nk]; ok && tg >= prev {
				continue
			}
			best[nk] = tg
			seq++
			heap.Push(open, &gridNode{
				tx: nx, ty: ny, g: tg, f: tg + h(nx, ny),
				seq: seq, parent: cur,
			})
		}
	}
	return nil, false
}

func reconstructTiles(end *gridNode) [][2]int {
	var path [][2]int
	for n := end; n != nil; n = n.parent {
		path = append(path, [2]int{n.tx, n.ty})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// SnapToPassableTile finds the closest finite-cost tile for the mode,
// spiraling outward ring by ring (Chebyshev rings) from the world
// position. Returns false once maxRadiusTiles is exceeded.
func SnapToPassableTile(m *data.TileMap, x, y float64, mode Mode, maxRadiusTiles int) (int, int, bool) {
	tx, ty := m.WorldToTile(x, y)
	if !math.IsInf(TileCost(m, mode, tx, ty), 1) {
		return tx, ty, true
	}
	for r := 1; r <= maxRadiusTiles; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if maxAbs(dx, dy) != r {
					continue
				}
				if !math.IsInf(TileCost(m, mode, tx+dx, ty+dy), 1) {
					return tx + dx, ty + dy, true
				}
			}
		}
	}
	return 0, 0, false
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
