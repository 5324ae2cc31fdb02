package services

import (
	"context"
	"encoding/base64"
	"log"
	"time"

	"pbl5-backend/models"
)

// TelemetryStreamer - periodic producer of camera/detection/range frames.
// It only reads what the control loop published, so it never blocks it.
type TelemetryStreamer struct {
	loop          *ControlLoop
	interval      time.Duration
	broadcastFunc func(interface{})
	lastSeq       uint64
}

// NewTelemetryStreamer - streamer constructor
func NewTelemetryStreamer(loop *ControlLoop, interval time.Duration, broadcastFunc func(interface{})) *TelemetryStreamer {
	if interval <= 0 {
		interval = time.Second / DefaultTelemetryHz
	}
	return &TelemetryStreamer{
		loop:          loop,
		interval:      interval,
		broadcastFunc: broadcastFunc,
	}
}

// Run - streams until ctx is cancelled
func (t *TelemetryStreamer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	log.Printf("📡 telemetry streamer started (every %v)", t.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Step()
		}
	}
}

// Step - broadcasts the latest frame if a session is running and the
// control loop produced something new since the previous step
func (t *TelemetryStreamer) Step() bool {
	frame, seq, ok := t.Frame()
	if !ok || seq == t.lastSeq {
		return false
	}
	t.lastSeq = seq
	if t.broadcastFunc != nil {
		t.broadcastFunc(frame)
	}
	return true
}

// Frame - telemetry payload built from the latest published state
func (t *TelemetryStreamer) Frame() (models.TelemetryFrame, uint64, bool) {
	p, snap, ok := t.loop.Latest()
	if !ok || !snap.Running || p.Seq == 0 || len(p.Frame) == 0 {
		return models.TelemetryFrame{}, 0, false
	}
	detections := p.Detections
	if detections == nil {
		detections = []models.Detection{}
	}
	return models.TelemetryFrame{
		Type:               models.MessageTypeTelemetry,
		Image:              base64.StdEncoding.EncodeToString(p.Frame),
		Detections:         detections,
		UltrasonicDistance: p.Range,
		Navigation:         &snap,
		Timestamp:          p.CapturedAt.UnixMilli(),
	}, p.Seq, true
}
