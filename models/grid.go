package models

import (
	"encoding/json"
	"fmt"
)

// ========================================
// Grid cell
// ========================================

// Cell - (row, col) coordinate in the navigation grid.
// Serialized as a two-element array [row, col] to match the web client.
type Cell struct {
	Row int
	Col int
}

// NewCell - Cell constructor
func NewCell(row, col int) Cell {
	return Cell{Row: row, Col: col}
}

// Add - returns the cell displaced by (dRow, dCol)
func (c Cell) Add(dRow, dCol int) Cell {
	return Cell{Row: c.Row + dRow, Col: c.Col + dCol}
}

// Manhattan - sum of absolute row and column differences
func (c Cell) Manhattan(other Cell) int {
	return abs(c.Row-other.Row) + abs(c.Col-other.Col)
}

// Less - row-major ordering, used for deterministic listings
func (c Cell) Less(other Cell) bool {
	if c.Row != other.Row {
		return c.Row < other.Row
	}
	return c.Col < other.Col
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// MarshalJSON - [row, col]
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

// UnmarshalJSON - accepts [row, col] only
func (c *Cell) UnmarshalJSON(b []byte) error {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("cell must be [row, col]: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("cell must have exactly 2 elements, got %d", len(raw))
	}
	c.Row, c.Col = raw[0], raw[1]
	return nil
}

// Path - ordered cells from start (inclusive) to goal (inclusive)
type Path []Cell

// Steps - number of grid moves in the path
func (p Path) Steps() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Empty - no route
func (p Path) Empty() bool {
	return len(p) == 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ========================================
// Heading / turn commands
// ========================================

// Heading - robot facing relative to the grid axes
type Heading int

const (
	HeadingSouth Heading = iota // +row ("backward" on the robot frame)
	HeadingEast                 // +col
	HeadingNorth                // -row
	HeadingWest                 // -col
)

// Headings - all headings in right-turn order
var Headings = [4]Heading{HeadingSouth, HeadingEast, HeadingNorth, HeadingWest}

func (h Heading) String() string {
	switch h {
	case HeadingSouth:
		return "backward"
	case HeadingEast:
		return "right"
	case HeadingNorth:
		return "up"
	case HeadingWest:
		return "left"
	default:
		return fmt.Sprintf("Heading(%d)", int(h))
	}
}

// Delta - grid displacement of one forward move
func (h Heading) Delta() (dRow, dCol int) {
	switch h {
	case HeadingSouth:
		return 1, 0
	case HeadingEast:
		return 0, 1
	case HeadingNorth:
		return -1, 0
	case HeadingWest:
		return 0, -1
	}
	return 0, 0
}

// MarshalJSON - heading name
func (h Heading) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// TurnCommand - result of the heading table lookup
type TurnCommand int

const (
	Straight TurnCommand = iota
	TurnLeft
	TurnRight
)

func (t TurnCommand) String() string {
	switch t {
	case Straight:
		return "straight"
	case TurnLeft:
		return "turn_left"
	case TurnRight:
		return "turn_right"
	default:
		return fmt.Sprintf("TurnCommand(%d)", int(t))
	}
}

// ActuatorCommand - command token understood by the drive board
type ActuatorCommand string

const (
	CommandStop        ActuatorCommand = "S"
	CommandMoveForward ActuatorCommand = "B"
	CommandTurnLeft    ActuatorCommand = "L"
	CommandTurnRight   ActuatorCommand = "R"
)

// ActuatorFor - maps a turn to the physical command token
func ActuatorFor(t TurnCommand) ActuatorCommand {
	switch t {
	case TurnLeft:
		return CommandTurnLeft
	case TurnRight:
		return CommandTurnRight
	default:
		return CommandMoveForward
	}
}
