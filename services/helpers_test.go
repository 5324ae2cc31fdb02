package services

import (
	"context"
	"sync"
	"time"

	"pbl5-backend/algorithms"
	"pbl5-backend/models"
)

// fakeClock - Sleep advances time instantly
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryRecorder - EventRecorder keeping entries in memory
type memoryRecorder struct {
	mu      sync.Mutex
	entries []models.NavigationLog
}

func (r *memoryRecorder) Record(entry models.NavigationLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *memoryRecorder) Events(eventType string) []models.NavigationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NavigationLog
	for _, e := range r.entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *memoryRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.EventType)
	}
	return out
}

func testTiming() LoopTiming {
	return LoopTiming{
		TickInterval: 500 * time.Millisecond,
		FrameBackoff: 2 * time.Second,
		ErrorBackoff: 2 * time.Second,
		TurnDuration: time.Second,
		BaseMoveTime: DefaultBaseMove,
	}
}

func newTestLoop(robot *VirtualRobot, clock Clock, rec EventRecorder) *ControlLoop {
	return NewControlLoop(robot, robot, robot, robot, testTiming(), clock, rec)
}

func commandTokens(cmds []SentCommand) []models.ActuatorCommand {
	out := make([]models.ActuatorCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Command)
	}
	return out
}

func openGrid(rows, cols int) *algorithms.GridMap {
	g, err := algorithms.NewGridMap(rows, cols, nil)
	if err != nil {
		panic(err)
	}
	return g
}

func carAt(height float64) models.Detection {
	return models.Detection{
		Label:       models.LabelCar,
		BoundingBox: models.BoundingBox{X1: 10, Y1: 0, X2: 60, Y2: height},
	}
}

func label(name string) models.Detection {
	return models.Detection{
		Label:       name,
		BoundingBox: models.BoundingBox{X1: 0, Y1: 0, X2: 20, Y2: 40},
	}
}
