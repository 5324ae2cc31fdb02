package algorithms

import (
	"container/heap"

	"pbl5-backend/models"
)

// neighborOffsets - 4-way moves, in expansion order
var neighborOffsets = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// node - A* open-set entry
type node struct {
	cell  models.Cell
	g, h  int
	f     int
	seq   int // insertion order, last tie-break
	index int // for heap
}

// priorityQueue - min-heap on (f, h, seq)
type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	if pq[i].h != pq[j].h {
		return pq[i].h < pq[j].h
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// PathPlanner - A* over a GridMap
type PathPlanner struct {
	grid *GridMap
}

// NewPathPlanner - PathPlanner constructor
func NewPathPlanner(grid *GridMap) *PathPlanner {
	return &PathPlanner{grid: grid}
}

// Grid - the map this planner searches
func (p *PathPlanner) Grid() *GridMap {
	return p.grid
}

// Plan - shortest 4-connected route from start to goal.
//
// Returns an empty path if either end is blocked or out of bounds, or if
// the obstacles disconnect them. Among equal f-scores the entry closer to
// the goal wins, then the one pushed first.
func (p *PathPlanner) Plan(start, goal models.Cell) models.Path {
	if !p.grid.InBounds(start) || !p.grid.InBounds(goal) {
		return models.Path{}
	}
	if p.grid.IsBlocked(start) || p.grid.IsBlocked(goal) {
		return models.Path{}
	}
	if start == goal {
		return models.Path{start}
	}

	openSet := make(priorityQueue, 0, p.grid.Rows()*p.grid.Cols())
	heap.Init(&openSet)
	seq := 0
	push := func(c models.Cell, g int) {
		h := c.Manhattan(goal)
		heap.Push(&openSet, &node{cell: c, g: g, h: h, f: g + h, seq: seq})
		seq++
	}

	cameFrom := make(map[models.Cell]models.Cell)
	gScore := map[models.Cell]int{start: 0}
	closed := make(map[models.Cell]bool)
	push(start, 0)

	for openSet.Len() > 0 {
		current := heap.Pop(&openSet).(*node)
		if closed[current.cell] {
			continue // stale entry
		}
		if current.cell == goal {
			return reconstructPath(cameFrom, start, goal)
		}
		closed[current.cell] = true

		for _, d := range neighborOffsets {
			next := current.cell.Add(d[0], d[1])
			if !p.grid.Passable(next) || closed[next] {
				continue
			}
			tentative := current.g + 1
			if existing, ok := gScore[next]; ok && tentative >= existing {
				continue
			}
			cameFrom[next] = current.cell
			gScore[next] = tentative
			push(next, tentative)
		}
	}
	return models.Path{}
}

// reconstructPath - follows parent links back from goal
func reconstructPath(cameFrom map[models.Cell]models.Cell, start, goal models.Cell) models.Path {
	path := models.Path{goal}
	for current := goal; current != start; {
		current = cameFrom[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ValidPath - consecutive cells are grid-adjacent and, apart from the
// first, none is blocked
func ValidPath(grid *GridMap, path models.Path) bool {
	for i, c := range path {
		if !grid.InBounds(c) {
			return false
		}
		if i == 0 {
			continue
		}
		if grid.IsBlocked(c) || path[i-1].Manhattan(c) != 1 {
			return false
		}
	}
	return true
}
