package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log"
	"sync"
	"time"

	"pbl5-backend/models"
)

// SentCommand - one actuator command received by the VirtualRobot
type SentCommand struct {
	Command models.ActuatorCommand
	Speed   int
	At      time.Time
}

// ScenarioStep - detections/range the VirtualRobot reports for a while
type ScenarioStep struct {
	Detections []models.Detection
	Range      models.RangeReading
	Duration   time.Duration
}

// VirtualRobot - in-process stand-in for the ESP32-CAM board and the
// detection service. Implements Actuator, RangeSensor, Camera and Detector.
type VirtualRobot struct {
	mu sync.RWMutex

	commands   []SentCommand
	detections []models.Detection
	reading    models.RangeReading
	frame      []byte

	failCapture int
	failSend    int
	failRange   int

	scenario  []ScenarioStep
	IsRunning bool
	stopChan  chan struct{}
}

// NewVirtualRobot - clear road, no range reading
func NewVirtualRobot() *VirtualRobot {
	return &VirtualRobot{
		reading: models.InvalidRange,
		frame:   blankFrame(320, 240),
	}
}

// ========================================
// Collaborator implementations
// ========================================

// Send - records the command
func (v *VirtualRobot) Send(ctx context.Context, cmd models.ActuatorCommand, speed int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failSend > 0 {
		v.failSend--
		return errors.New("virtual actuator unreachable")
	}
	v.commands = append(v.commands, SentCommand{Command: cmd, Speed: speed, At: time.Now()})
	return nil
}

// ReadDistance - current scripted range
func (v *VirtualRobot) ReadDistance(ctx context.Context) (models.RangeReading, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failRange > 0 {
		v.failRange--
		return models.InvalidRange, errors.New("virtual ultrasonic unreachable")
	}
	return v.reading, nil
}

// Capture - generated JPEG frame
func (v *VirtualRobot) Capture(ctx context.Context) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failCapture > 0 {
		v.failCapture--
		return nil, fmt.Errorf("%w: virtual camera offline", ErrNoFrame)
	}
	return v.frame, nil
}

// Detect - current scripted detections; the frame is returned unannotated
func (v *VirtualRobot) Detect(ctx context.Context, frame []byte) ([]models.Detection, []byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Detection, len(v.detections))
	copy(out, v.detections)
	return out, frame, nil
}

// ========================================
// Scripting
// ========================================

// SetDetections - detections reported from now on
func (v *VirtualRobot) SetDetections(detections ...models.Detection) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detections = detections
}

// SetRange - ultrasonic reading reported from now on
func (v *VirtualRobot) SetRange(r models.RangeReading) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reading = r
}

// FailCaptures - the next n captures fail
func (v *VirtualRobot) FailCaptures(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failCapture = n
}

// FailSends - the next n actuator commands fail
func (v *VirtualRobot) FailSends(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failSend = n
}

// FailRanges - the next n ultrasonic reads fail
func (v *VirtualRobot) FailRanges(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failRange = n
}

// Commands - copy of every command received so far
func (v *VirtualRobot) Commands() []SentCommand {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]SentCommand, len(v.commands))
	copy(out, v.commands)
	return out
}

// LastCommand - most recent command, if any
func (v *VirtualRobot) LastCommand() (SentCommand, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.commands) == 0 {
		return SentCommand{}, false
	}
	return v.commands[len(v.commands)-1], true
}

// ========================================
// Scenario playback (ROBOT_MODE=sim)
// ========================================

// DefaultScenario - clear road, red light, green light, a car ahead
func DefaultScenario() []ScenarioStep {
	return []ScenarioStep{
		{Range: models.InvalidRange, Duration: 4 * time.Second},
		{Detections: []models.Detection{{Label: models.LabelRedLight, BoundingBox: models.BoundingBox{X1: 40, Y1: 20, X2: 80, Y2: 110}}},
			Range: models.InvalidRange, Duration: 3 * time.Second},
		{Detections: []models.Detection{{Label: models.LabelGreenLight, BoundingBox: models.BoundingBox{X1: 40, Y1: 20, X2: 80, Y2: 110}}},
			Range: models.InvalidRange, Duration: 2 * time.Second},
		{Detections: []models.Detection{{Label: models.LabelCar, BoundingBox: models.BoundingBox{X1: 100, Y1: 60, X2: 220, Y2: 130}}},
			Range: 60, Duration: 3 * time.Second},
		{Range: 6, Duration: 2 * time.Second},
	}
}

// SetScenario - steps played in a loop by Start
func (v *VirtualRobot) SetScenario(steps []ScenarioStep) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scenario = steps
}

// Start - plays the scenario until Stop
func (v *VirtualRobot) Start() {
	v.mu.Lock()
	if v.IsRunning || len(v.scenario) == 0 {
		v.mu.Unlock()
		return
	}
	v.IsRunning = true
	v.stopChan = make(chan struct{})
	steps := v.scenario
	stop := v.stopChan
	v.mu.Unlock()

	log.Printf("🤖 virtual robot scenario started (%d steps)", len(steps))
	go v.runScenario(steps, stop)
}

// Stop - stops scenario playback
func (v *VirtualRobot) Stop() {
	v.mu.Lock()
	if !v.IsRunning {
		v.mu.Unlock()
		return
	}
	v.IsRunning = false
	close(v.stopChan)
	v.mu.Unlock()
	log.Println("🛑 virtual robot scenario stopped")
}

func (v *VirtualRobot) runScenario(steps []ScenarioStep, stop <-chan struct{}) {
	for i := 0; ; i = (i + 1) % len(steps) {
		step := steps[i]
		v.mu.Lock()
		v.detections = step.Detections
		v.reading = step.Range
		v.mu.Unlock()

		timer := time.NewTimer(step.Duration)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// blankFrame - gray JPEG used as the simulated camera image
func blankFrame(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 90, G: 90, B: 90, A: 255}), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
