package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"pbl5-backend/algorithms"
	"pbl5-backend/models"
)

// EventRecorder - sink for navigation events (the buffered DB log)
type EventRecorder interface {
	Record(entry models.NavigationLog)
}

// Perception - latest camera/sensor result seen by the control loop
type Perception struct {
	Frame      []byte // annotated JPEG
	Detections []models.Detection
	Range      models.RangeReading
	CapturedAt time.Time
	Seq        uint64
}

// TickReport - what one tick decided and sent
type TickReport struct {
	Decision Decision
	Commands []models.ActuatorCommand
	Advanced bool
	Turn     models.TurnCommand
	Arrived  bool
}

// ControlLoop - the per-tick arbitration worker. One Run per session; the
// session is written only by the goroutine executing Run.
type ControlLoop struct {
	actuator Actuator
	sensor   RangeSensor
	camera   Camera
	detector Detector
	timing   LoopTiming
	clock    Clock
	recorder EventRecorder

	mu         sync.RWMutex
	perception Perception
	snapshot   models.NavigationSnapshot
	hasState   bool
	activeID   string // session whose writes are published
}

// NewControlLoop - ControlLoop constructor. recorder may be nil.
func NewControlLoop(actuator Actuator, sensor RangeSensor, camera Camera, detector Detector,
	timing LoopTiming, clock Clock, recorder EventRecorder) *ControlLoop {
	if clock == nil {
		clock = RealClock()
	}
	return &ControlLoop{
		actuator: actuator,
		sensor:   sensor,
		camera:   camera,
		detector: detector,
		timing:   timing,
		clock:    clock,
		recorder: recorder,
	}
}

// CellTravelTime - assumed time to cross one cell at speed
func (l *ControlLoop) CellTravelTime(speed int) time.Duration {
	if speed <= 0 {
		speed = models.DefaultSpeed
	}
	return time.Duration(int64(l.timing.BaseMoveTime) * models.DefaultSpeed / int64(speed))
}

// Run - ticks until the goal is reached (nil) or ctx is cancelled.
// Tick failures are logged and followed by a backoff; they never end the loop.
func (l *ControlLoop) Run(ctx context.Context, s *models.NavigationSession) error {
	log.Printf("🚗 control loop started: session=%s %v -> %v (%d cells)",
		s.ID, s.StartPosition, s.GoalPosition, len(s.Path))
	if err := l.claim(ctx, s); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.Running {
			return nil
		}

		report, err := l.safeTick(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			backoff := l.timing.ErrorBackoff
			if errors.Is(err, ErrNoFrame) {
				backoff = l.timing.FrameBackoff
				log.Printf("⚠️ tick skipped: %v", err)
			} else {
				log.Printf("❌ tick error: %v", err)
				l.record(models.EventTickError, s, "", err.Error(), nil, models.InvalidRange)
			}
			if err := l.clock.Sleep(ctx, backoff); err != nil {
				return err
			}
			continue
		}
		if report.Arrived {
			return nil
		}
		if err := l.clock.Sleep(ctx, l.timing.TickInterval); err != nil {
			return err
		}
	}
}

// safeTick - Tick with panics turned into errors
func (l *ControlLoop) safeTick(ctx context.Context, s *models.NavigationSession) (report TickReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()
	return l.Tick(ctx, s)
}

// Tick - one sense / arbitrate / act cycle
func (l *ControlLoop) Tick(ctx context.Context, s *models.NavigationSession) (TickReport, error) {
	var report TickReport

	reading, err := l.sensor.ReadDistance(ctx)
	if err != nil {
		log.Printf("⚠️ ultrasonic unavailable: %v", err)
		reading = models.InvalidRange
	}

	frame, err := l.camera.Capture(ctx)
	if err != nil {
		return report, noFrame(err)
	}
	detections, annotated, err := l.detector.Detect(ctx, frame)
	if err != nil {
		return report, noFrame(err)
	}
	l.publishPerception(s.ID, annotated, detections, reading)
	if len(detections) > 0 {
		log.Printf("👀 detected: %v", models.Labels(detections))
		l.record(models.EventDetection, s, "", "", detections, reading)
	}

	decision := Arbitrate(s, detections, reading)
	report.Decision = decision

	if !decision.Final && s.Latch == models.LightGreen {
		if err := l.advance(ctx, s, &report); err != nil {
			l.publishSnapshot(s)
			return report, err
		}
	}

	if len(report.Commands) == 0 {
		l.send(ctx, s, decision.Command, decision.Reason, &report)
	}
	l.publishSnapshot(s)
	return report, nil
}

// advance - dead-reckoned route progress and the move or turn it implies
func (l *ControlLoop) advance(ctx context.Context, s *models.NavigationSession, report *TickReport) error {
	now := l.clock.Now()
	if now.Sub(s.LastAdvance) <= l.CellTravelTime(s.Speed) {
		return nil
	}
	if s.Advance(now) {
		report.Advanced = true
		log.Printf("📍 assumed cell %v (index %d/%d)", s.CurrentPosition, s.PathIndex, len(s.Path))
	}

	if s.Arrived() {
		l.send(ctx, s, models.CommandStop, ReasonArrived, report)
		s.Running = false
		report.Arrived = true
		log.Printf("🏁 goal reached: %v", s.GoalPosition)
		l.record(models.EventArrived, s, string(models.CommandStop), ReasonArrived, nil, models.InvalidRange)
		return nil
	}

	next, ok := s.NextCell()
	if !ok {
		return fmt.Errorf("no next cell at index %d of %d", s.PathIndex, len(s.Path))
	}
	target, ok := algorithms.HeadingBetween(s.CurrentPosition, next)
	if !ok {
		return fmt.Errorf("non-adjacent step %v -> %v", s.CurrentPosition, next)
	}
	turn := algorithms.TurnFor(s.Heading, target)
	report.Turn = turn
	log.Printf("🧭 %v -> %v: %v (heading %v)", s.CurrentPosition, next, turn, s.Heading)

	if turn == models.Straight {
		l.send(ctx, s, models.CommandMoveForward, ReasonClear, report)
		return nil
	}

	turns := algorithms.TurnsRequired(s.Heading, target)
	for i := 0; i < turns; i++ {
		if err := l.turn90(ctx, s, turn, report); err != nil {
			return err
		}
	}
	// the turn itself is not travel time
	s.LastAdvance = l.clock.Now()
	return nil
}

// turn90 - turn, wait for the physical rotation, stop pulse, commit heading
func (l *ControlLoop) turn90(ctx context.Context, s *models.NavigationSession, turn models.TurnCommand, report *TickReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.send(ctx, s, models.ActuatorFor(turn), turn.String(), report)
	if err := l.clock.Sleep(ctx, l.timing.TurnDuration); err != nil {
		return err
	}
	l.send(ctx, s, models.CommandStop, turn.String(), report)
	s.Heading = algorithms.ApplyTurn(s.Heading, turn)
	return nil
}

// send - actuator failures are logged, not retried. Nothing is sent once
// ctx is cancelled: the session has been stopped or replaced.
func (l *ControlLoop) send(ctx context.Context, s *models.NavigationSession, cmd models.ActuatorCommand, reason string, report *TickReport) {
	if ctx.Err() != nil {
		return
	}
	report.Commands = append(report.Commands, cmd)
	if err := l.actuator.Send(ctx, cmd, s.Speed); err != nil {
		log.Printf("❌ actuator %s: %v", cmd, err)
	}
	l.record(models.EventCommand, s, string(cmd), reason, nil, models.InvalidRange)
}

func noFrame(err error) error {
	if errors.Is(err, ErrNoFrame) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNoFrame, err)
}

func (l *ControlLoop) record(eventType string, s *models.NavigationSession, cmd, reason string,
	detections []models.Detection, reading models.RangeReading) {
	if l.recorder == nil {
		return
	}
	l.recorder.Record(models.NavigationLog{
		CreatedAt:    l.clock.Now(),
		EventType:    eventType,
		SessionID:    s.ID,
		Row:          s.CurrentPosition.Row,
		Col:          s.CurrentPosition.Col,
		Heading:      s.Heading.String(),
		PathIndex:    s.PathIndex,
		Speed:        s.Speed,
		Command:      cmd,
		TrafficLight: string(s.Latch),
		Labels:       strings.Join(models.Labels(detections), ","),
		RangeCM:      float64(reading),
		Reason:       reason,
	})
}

// ========================================
// Published state for telemetry / status readers
// ========================================

func (l *ControlLoop) reset(s *models.NavigationSession) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(s)
}

// claim - reset for s unless ctx was already cancelled. Checked under the
// lock so a worker halted before it got here cannot reclaim the loop.
func (l *ControlLoop) claim(ctx context.Context, s *models.NavigationSession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	l.resetLocked(s)
	return nil
}

func (l *ControlLoop) resetLocked(s *models.NavigationSession) {
	l.perception = Perception{Range: models.InvalidRange, Seq: l.perception.Seq}
	l.snapshot = s.Snapshot()
	l.hasState = true
	l.activeID = s.ID
}

func (l *ControlLoop) publishPerception(id string, frame []byte, detections []models.Detection, reading models.RangeReading) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id != l.activeID {
		return
	}
	l.perception = Perception{
		Frame:      frame,
		Detections: detections,
		Range:      reading,
		CapturedAt: l.clock.Now(),
		Seq:        l.perception.Seq + 1,
	}
}

func (l *ControlLoop) publishSnapshot(s *models.NavigationSession) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.ID != l.activeID {
		return
	}
	l.snapshot = s.Snapshot()
	l.hasState = true
}

// MarkStopped - records that the session is no longer running. Called by
// the supervisor after halting the worker; later writes from that worker
// are no longer published.
func (l *ControlLoop) MarkStopped() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshot.Running = false
	l.activeID = ""
}

// Latest - most recent perception and session snapshot
func (l *ControlLoop) Latest() (Perception, models.NavigationSnapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.perception, l.snapshot, l.hasState
}
