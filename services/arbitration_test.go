package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pbl5-backend/models"
)

func newSession() *models.NavigationSession {
	path := models.Path{models.NewCell(0, 0), models.NewCell(0, 1)}
	return models.NewNavigationSession("test", path[0], path[1], path, time.Now())
}

func TestArbitrate(t *testing.T) {
	tests := []struct {
		name       string
		speed      int
		latch      models.TrafficLight
		detections []models.Detection
		reading    models.RangeReading
		command    models.ActuatorCommand
		final      bool
		reason     string
		wantSpeed  int
		wantLatch  models.TrafficLight
	}{
		{"clear road", 120, models.LightGreen, nil, models.InvalidRange,
			models.CommandMoveForward, false, ReasonClear, 120, models.LightGreen},
		{"car too close", 120, models.LightGreen, []models.Detection{carAt(350)}, 50,
			models.CommandStop, true, ReasonCarTooClose, 120, models.LightGreen},
		{"car too close with close range", 120, models.LightGreen, []models.Detection{carAt(350)}, 5,
			models.CommandStop, true, ReasonCarTooClose, 120, models.LightGreen},
		{"car near slows down", 120, models.LightGreen, []models.Detection{carAt(250)}, models.InvalidRange,
			models.CommandMoveForward, true, ReasonCarNear, 100, models.LightGreen},
		{"car near at floor", 80, models.LightGreen, []models.Detection{carAt(250)}, models.InvalidRange,
			models.CommandMoveForward, true, ReasonCarNear, 80, models.LightGreen},
		{"car far speeds up", 120, models.LightGreen, []models.Detection{carAt(50)}, models.InvalidRange,
			models.CommandMoveForward, false, ReasonCarFar, 140, models.LightGreen},
		{"car far at cap", 140, models.LightGreen, []models.Detection{carAt(50)}, 30,
			models.CommandMoveForward, false, ReasonCarFar, 140, models.LightGreen},
		{"car far but range close", 120, models.LightGreen, []models.Detection{carAt(50)}, 5,
			models.CommandMoveForward, false, ReasonCarTracking, 120, models.LightGreen},
		{"car at stop threshold slows", 120, models.LightGreen, []models.Detection{carAt(300)}, models.InvalidRange,
			models.CommandMoveForward, true, ReasonCarNear, 100, models.LightGreen},
		{"car at slow threshold tracks", 120, models.LightGreen, []models.Detection{carAt(200)}, models.InvalidRange,
			models.CommandMoveForward, false, ReasonCarTracking, 120, models.LightGreen},
		{"car at far threshold tracks", 120, models.LightGreen, []models.Detection{carAt(100)}, models.InvalidRange,
			models.CommandMoveForward, false, ReasonCarTracking, 120, models.LightGreen},
		{"car far with range at threshold speeds up", 120, models.LightGreen, []models.Detection{carAt(50)}, 10,
			models.CommandMoveForward, false, ReasonCarFar, 140, models.LightGreen},
		{"car mid distance", 120, models.LightGreen, []models.Detection{carAt(150)}, models.InvalidRange,
			models.CommandMoveForward, false, ReasonCarTracking, 120, models.LightGreen},
		{"obstacle near slows down", 120, models.LightGreen, nil, 5,
			models.CommandMoveForward, true, ReasonObstacleNear, 100, models.LightGreen},
		{"obstacle near at floor", 80, models.LightGreen, nil, 5,
			models.CommandMoveForward, true, ReasonObstacleNear, 80, models.LightGreen},
		{"range exactly threshold", 120, models.LightGreen, nil, 10,
			models.CommandMoveForward, false, ReasonClear, 120, models.LightGreen},
		{"red light latches", 120, models.LightGreen, []models.Detection{label(models.LabelRedLight)}, models.InvalidRange,
			models.CommandStop, true, ReasonRedLight, 120, models.LightRed},
		{"latched red holds", 120, models.LightRed, nil, models.InvalidRange,
			models.CommandStop, true, ReasonRedLatched, 120, models.LightRed},
		{"green clears latch", 120, models.LightRed, []models.Detection{label(models.LabelGreenLight)}, models.InvalidRange,
			models.CommandMoveForward, false, ReasonClear, 120, models.LightGreen},
		{"red wins over car", 120, models.LightGreen, []models.Detection{carAt(50), label(models.LabelRedLight)}, models.InvalidRange,
			models.CommandStop, true, ReasonRedLight, 120, models.LightRed},
		{"no entry", 120, models.LightGreen, []models.Detection{label(models.LabelNoEntry)}, models.InvalidRange,
			models.CommandStop, true, ReasonNoEntry, 120, models.LightGreen},
		{"green then no entry", 120, models.LightRed, []models.Detection{label(models.LabelGreenLight), label(models.LabelNoEntry)}, models.InvalidRange,
			models.CommandStop, true, ReasonNoEntry, 120, models.LightGreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			s.Speed = tt.speed
			s.Latch = tt.latch

			d := Arbitrate(s, tt.detections, tt.reading)

			assert.Equal(t, tt.command, d.Command)
			assert.Equal(t, tt.final, d.Final)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.wantSpeed, s.Speed)
			assert.Equal(t, tt.wantLatch, s.Latch)
		})
	}
}

func TestArbitrate_LeavesRouteAlone(t *testing.T) {
	s := newSession()
	before := s.Snapshot()
	Arbitrate(s, []models.Detection{carAt(250)}, 5)
	after := s.Snapshot()

	assert.Equal(t, before.AssumedPosition, after.AssumedPosition)
	assert.Equal(t, before.PathIndex, after.PathIndex)
	assert.Equal(t, before.Heading, after.Heading)
}
