package algorithms

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pbl5-backend/models"
)

// Default field layout of the test track
const (
	DefaultRows = 5
	DefaultCols = 7
)

// DefaultObstacles - blocked cells of the test track
var DefaultObstacles = []models.Cell{
	{Row: 0, Col: 1}, {Row: 0, Col: 2},
	{Row: 1, Col: 1}, {Row: 1, Col: 4}, {Row: 1, Col: 6},
	{Row: 2, Col: 3}, {Row: 2, Col: 4},
	{Row: 3, Col: 0}, {Row: 3, Col: 1}, {Row: 3, Col: 5},
	{Row: 4, Col: 3},
}

var (
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	ErrObstacleOutside   = errors.New("obstacle outside grid")
)

// GridMap - immutable grid dimensions + obstacle set
type GridMap struct {
	rows      int
	cols      int
	obstacles map[models.Cell]struct{}
}

// NewGridMap - validates the layout and copies the obstacle set
func NewGridMap(rows, cols int, obstacles []models.Cell) (*GridMap, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	g := &GridMap{
		rows:      rows,
		cols:      cols,
		obstacles: make(map[models.Cell]struct{}, len(obstacles)),
	}
	for _, o := range obstacles {
		if !g.InBounds(o) {
			return nil, fmt.Errorf("%w: %v in %dx%d", ErrObstacleOutside, o, rows, cols)
		}
		g.obstacles[o] = struct{}{}
	}
	return g, nil
}

// DefaultGridMap - the 5x7 test track
func DefaultGridMap() *GridMap {
	g, err := NewGridMap(DefaultRows, DefaultCols, DefaultObstacles)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *GridMap) Rows() int { return g.rows }
func (g *GridMap) Cols() int { return g.cols }

// InBounds - 0 <= row < rows && 0 <= col < cols
func (g *GridMap) InBounds(c models.Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// IsBlocked - cell is an obstacle
func (g *GridMap) IsBlocked(c models.Cell) bool {
	_, ok := g.obstacles[c]
	return ok
}

// Passable - in bounds and not blocked
func (g *GridMap) Passable(c models.Cell) bool {
	return g.InBounds(c) && !g.IsBlocked(c)
}

// Obstacles - sorted copy of the obstacle set
func (g *GridMap) Obstacles() []models.Cell {
	out := make([]models.Cell, 0, len(g.obstacles))
	for c := range g.obstacles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Info - serializable description for the web client
func (g *GridMap) Info() models.GridInfo {
	return models.GridInfo{Rows: g.rows, Cols: g.cols, Obstacles: g.Obstacles()}
}

// ParseObstacles - parses "r,c;r,c;..." (whitespace tolerant, empty = none)
func ParseObstacles(raw string) ([]models.Cell, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var cells []models.Cell
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rc := strings.Split(part, ",")
		if len(rc) != 2 {
			return nil, fmt.Errorf("invalid obstacle %q: want row,col", part)
		}
		row, err := strconv.Atoi(strings.TrimSpace(rc[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid obstacle row %q: %w", part, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(rc[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid obstacle col %q: %w", part, err)
		}
		cells = append(cells, models.NewCell(row, col))
	}
	return cells, nil
}
