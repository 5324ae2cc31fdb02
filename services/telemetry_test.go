package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbl5-backend/models"
)

func TestTelemetryStreamer_Step(t *testing.T) {
	robot := NewVirtualRobot()
	clock := newFakeClock()
	loop := newTestLoop(robot, clock, nil)
	s := planSession(t, openGrid(1, 3), models.NewCell(0, 0), models.NewCell(0, 2), clock.Now())

	var frames []models.TelemetryFrame
	streamer := NewTelemetryStreamer(loop, 0, func(v interface{}) {
		frames = append(frames, v.(models.TelemetryFrame))
	})

	// nothing published yet
	assert.False(t, streamer.Step())

	loop.reset(s)
	assert.False(t, streamer.Step())

	robot.SetDetections(carAt(150))
	robot.SetRange(33)
	_, err := loop.Tick(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, streamer.Step())
	// same perception is not sent twice
	assert.False(t, streamer.Step())

	require.Len(t, frames, 1)
	f := frames[0]
	assert.Equal(t, models.MessageTypeTelemetry, f.Type)
	assert.Equal(t, models.RangeReading(33), f.UltrasonicDistance)
	require.Len(t, f.Detections, 1)
	img, err := base64.StdEncoding.DecodeString(f.Image)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	require.NotNil(t, f.Navigation)
	assert.Equal(t, "sess", f.Navigation.SessionID)

	_, err = loop.Tick(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, streamer.Step())
	assert.Len(t, frames, 2)
}

func TestTelemetryStreamer_IdleSendsNothing(t *testing.T) {
	robot := NewVirtualRobot()
	clock := newFakeClock()
	loop := newTestLoop(robot, clock, nil)
	s := planSession(t, openGrid(1, 3), models.NewCell(0, 0), models.NewCell(0, 2), clock.Now())
	loop.reset(s)
	_, err := loop.Tick(context.Background(), s)
	require.NoError(t, err)

	loop.MarkStopped()
	sent := 0
	streamer := NewTelemetryStreamer(loop, 0, func(interface{}) { sent++ })

	assert.False(t, streamer.Step())
	assert.Zero(t, sent)
}

func TestTelemetryStreamer_EmptyDetections(t *testing.T) {
	robot := NewVirtualRobot()
	clock := newFakeClock()
	loop := newTestLoop(robot, clock, nil)
	s := planSession(t, openGrid(1, 3), models.NewCell(0, 0), models.NewCell(0, 2), clock.Now())
	loop.reset(s)
	_, err := loop.Tick(context.Background(), s)
	require.NoError(t, err)

	frame, seq, ok := NewTelemetryStreamer(loop, 0, nil).Frame()

	require.True(t, ok)
	assert.Equal(t, uint64(1), seq)
	assert.NotNil(t, frame.Detections)
	assert.Empty(t, frame.Detections)
	assert.Equal(t, models.InvalidRange, frame.UltrasonicDistance)
}
