package models

import "time"

// Speed limits of the drive board (PWM duty units)
const (
	MinSpeed     = 80
	MaxSpeed     = 140
	DefaultSpeed = 120
	SpeedStep    = 20
)

// InitialHeading - heading assumed at the start of every session
const InitialHeading = HeadingSouth

// TrafficLight - latched traffic-light state
type TrafficLight string

const (
	LightGreen TrafficLight = "green"
	LightRed   TrafficLight = "red"
)

// ========================================
// Navigation session
// ========================================

// NavigationSession - mutable state of one navigation run.
//
// CurrentPosition is the assumed (dead-reckoned) position, derived from
// elapsed time and the planned moves only. Nothing senses it.
type NavigationSession struct {
	ID              string       `json:"id"`
	StartPosition   Cell         `json:"start_position"`
	CurrentPosition Cell         `json:"assumed_position"`
	GoalPosition    Cell         `json:"goal_position"`
	Heading         Heading      `json:"heading"`
	Path            Path         `json:"path"`
	PathIndex       int          `json:"path_index"`
	Speed           int          `json:"speed"`
	Latch           TrafficLight `json:"traffic_light"`
	Running         bool         `json:"running"`
	StartedAt       time.Time    `json:"started_at"`
	LastAdvance     time.Time    `json:"last_advance"`
}

// NewNavigationSession - fresh session with heading, speed and latch reset
func NewNavigationSession(id string, start, goal Cell, path Path, now time.Time) *NavigationSession {
	return &NavigationSession{
		ID:              id,
		StartPosition:   start,
		CurrentPosition: start,
		GoalPosition:    goal,
		Heading:         InitialHeading,
		Path:            path,
		PathIndex:       0,
		Speed:           DefaultSpeed,
		Latch:           LightGreen,
		Running:         true,
		StartedAt:       now,
		LastAdvance:     now,
	}
}

// SlowDown - reduce speed by one step, floor MinSpeed
func (s *NavigationSession) SlowDown() {
	s.Speed -= SpeedStep
	if s.Speed < MinSpeed {
		s.Speed = MinSpeed
	}
}

// SpeedUp - raise speed by one step, cap MaxSpeed
func (s *NavigationSession) SpeedUp() {
	s.Speed += SpeedStep
	if s.Speed > MaxSpeed {
		s.Speed = MaxSpeed
	}
}

// Arrived - assumed position equals goal
func (s *NavigationSession) Arrived() bool {
	return s.PathIndex > 0 && s.CurrentPosition == s.GoalPosition
}

// Advance - move the assumed position one path cell forward
func (s *NavigationSession) Advance(now time.Time) bool {
	if s.PathIndex >= len(s.Path) {
		return false
	}
	s.PathIndex++
	s.CurrentPosition = s.Path[s.PathIndex-1]
	s.LastAdvance = now
	return true
}

// NextCell - the cell the robot is heading for, if any
func (s *NavigationSession) NextCell() (Cell, bool) {
	if s.PathIndex <= 0 || s.PathIndex >= len(s.Path) {
		return Cell{}, false
	}
	return s.Path[s.PathIndex], true
}

// Snapshot - copy of the session for readers outside the control loop
func (s *NavigationSession) Snapshot() NavigationSnapshot {
	path := make(Path, len(s.Path))
	copy(path, s.Path)
	return NavigationSnapshot{
		SessionID:       s.ID,
		AssumedPosition: s.CurrentPosition,
		GoalPosition:    s.GoalPosition,
		Heading:         s.Heading,
		Path:            path,
		PathIndex:       s.PathIndex,
		Speed:           s.Speed,
		TrafficLight:    s.Latch,
		Running:         s.Running,
		StartedAt:       s.StartedAt,
	}
}

// NavigationSnapshot - read-only view of a session
type NavigationSnapshot struct {
	SessionID       string       `json:"session_id"`
	AssumedPosition Cell         `json:"assumed_position"`
	GoalPosition    Cell         `json:"goal_position"`
	Heading         Heading      `json:"heading"`
	Path            Path         `json:"path"`
	PathIndex       int          `json:"path_index"`
	Speed           int          `json:"speed"`
	TrafficLight    TrafficLight `json:"traffic_light"`
	Running         bool         `json:"running"`
	StartedAt       time.Time    `json:"started_at"`
}
