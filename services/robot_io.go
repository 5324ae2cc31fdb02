package services

import (
	"context"
	"errors"
	"time"

	"pbl5-backend/models"
)

// ErrNoFrame - camera or detector produced nothing usable this tick
var ErrNoFrame = errors.New("no frame")

// Actuator - drive board command endpoint
type Actuator interface {
	Send(ctx context.Context, cmd models.ActuatorCommand, speed int) error
}

// RangeSensor - front ultrasonic sensor
type RangeSensor interface {
	ReadDistance(ctx context.Context) (models.RangeReading, error)
}

// Camera - JPEG frame source
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Detector - object detection stage; returns detections and an annotated frame
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]models.Detection, []byte, error)
}

// Clock - time source of the control loop
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock - wall clock with context-aware sleep
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
