package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pbl5-backend/algorithms"
	"pbl5-backend/models"
)

var (
	ErrOutOfBounds       = errors.New("cell out of grid bounds")
	ErrNoRoute           = errors.New("no route between start and goal")
	ErrSupervisorStopped = errors.New("navigation supervisor not running")
)

// SupervisorState - lifecycle of the single navigation worker
type SupervisorState string

const (
	StateIdle       SupervisorState = "idle"
	StateNavigating SupervisorState = "navigating"
	StateStopping   SupervisorState = "stopping"
)

// SupervisorStatus - state plus the latest session snapshot
type SupervisorStatus struct {
	State   SupervisorState            `json:"state"`
	Session *models.NavigationSnapshot `json:"session,omitempty"`
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
)

type supervisorCommand struct {
	kind  commandKind
	start models.Cell
	goal  models.Cell
	reply chan startResult
}

type startResult struct {
	path    models.Path
	session string
	err     error
}

// worker - the running ControlLoop goroutine of one session
type worker struct {
	session *models.NavigationSession
	cancel  context.CancelFunc
	done    chan struct{}
}

// NavigationSupervisor - owns the one running ControlLoop.
//
// All transitions Idle → Navigating → Stopping → Idle happen on the
// goroutine executing Run; Start and Stop only send it commands.
type NavigationSupervisor struct {
	planner     *algorithms.PathPlanner
	loop        *ControlLoop
	actuator    Actuator
	recorder    EventRecorder
	joinTimeout time.Duration
	clock       Clock
	notify      func(models.NavigationEvent)

	commands chan supervisorCommand
	status   chan chan SupervisorStatus

	// owned by Run
	state  SupervisorState
	active *worker
}

// NewNavigationSupervisor - supervisor constructor. recorder may be nil.
func NewNavigationSupervisor(planner *algorithms.PathPlanner, loop *ControlLoop, actuator Actuator,
	recorder EventRecorder, joinTimeout time.Duration) *NavigationSupervisor {
	return &NavigationSupervisor{
		planner:     planner,
		loop:        loop,
		actuator:    actuator,
		recorder:    recorder,
		joinTimeout: joinTimeout,
		clock:       loop.clock,
		commands:    make(chan supervisorCommand),
		status:      make(chan chan SupervisorStatus),
		state:       StateIdle,
	}
}

// SetNotifier - callback for lifecycle events (broadcast to web clients)
func (s *NavigationSupervisor) SetNotifier(fn func(models.NavigationEvent)) {
	s.notify = fn
}

// Start - validates the cells, stops any active session and starts a new one
func (s *NavigationSupervisor) Start(ctx context.Context, start, goal models.Cell) (models.Path, string, error) {
	grid := s.planner.Grid()
	if !grid.InBounds(start) {
		return nil, "", fmt.Errorf("%w: start %v", ErrOutOfBounds, start)
	}
	if !grid.InBounds(goal) {
		return nil, "", fmt.Errorf("%w: goal %v", ErrOutOfBounds, goal)
	}
	res, err := s.request(ctx, supervisorCommand{kind: cmdStart, start: start, goal: goal})
	if err != nil {
		return nil, "", err
	}
	return res.path, res.session, res.err
}

// Stop - idempotent; always leaves the actuator stopped
func (s *NavigationSupervisor) Stop(ctx context.Context) error {
	res, err := s.request(ctx, supervisorCommand{kind: cmdStop})
	if err != nil {
		return err
	}
	return res.err
}

// Status - current state and session snapshot
func (s *NavigationSupervisor) Status(ctx context.Context) (SupervisorStatus, error) {
	if err := ctx.Err(); err != nil {
		return SupervisorStatus{}, err
	}
	reply := make(chan SupervisorStatus, 1)
	select {
	case s.status <- reply:
	case <-ctx.Done():
		return SupervisorStatus{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return SupervisorStatus{}, ctx.Err()
	}
}

// Running - a session is being navigated
func (s *NavigationSupervisor) Running() bool {
	_, snap, ok := s.loop.Latest()
	return ok && snap.Running
}

func (s *NavigationSupervisor) request(ctx context.Context, cmd supervisorCommand) (startResult, error) {
	if err := ctx.Err(); err != nil {
		return startResult{}, fmt.Errorf("%w: %v", ErrSupervisorStopped, err)
	}
	cmd.reply = make(chan startResult, 1)
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return startResult{}, fmt.Errorf("%w: %v", ErrSupervisorStopped, ctx.Err())
	}
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return startResult{}, ctx.Err()
	}
}

// Run - supervisor event loop; returns when ctx is cancelled after
// stopping any active session
func (s *NavigationSupervisor) Run(ctx context.Context) {
	log.Println("✅ NavigationSupervisor started")
	for {
		var workerDone chan struct{}
		if s.active != nil {
			workerDone = s.active.done
		}

		select {
		case <-ctx.Done():
			s.halt(context.Background(), ReasonStopRequested)
			log.Println("🛑 NavigationSupervisor stopped")
			return

		case cmd := <-s.commands:
			switch cmd.kind {
			case cmdStart:
				cmd.reply <- s.handleStart(ctx, cmd.start, cmd.goal)
			case cmdStop:
				s.halt(ctx, ReasonStopRequested)
				cmd.reply <- startResult{}
			}

		case reply := <-s.status:
			reply <- s.snapshotStatus()

		case <-workerDone:
			// worker exited on its own: goal reached
			snap := s.active.session.Snapshot()
			s.active = nil
			s.state = StateIdle
			s.emit(models.StatusArrived, snap)
		}
	}
}

func (s *NavigationSupervisor) handleStart(ctx context.Context, start, goal models.Cell) startResult {
	if s.active != nil {
		log.Println("🔁 new navigation requested, stopping current session")
		s.halt(ctx, ReasonStopRequested)
	}

	path := s.planner.Plan(start, goal)
	if path.Empty() {
		log.Printf("❌ no route %v -> %v", start, goal)
		s.recordFor(models.EventNoRoute, start, goal)
		return startResult{path: path, err: fmt.Errorf("%w: %v -> %v", ErrNoRoute, start, goal)}
	}

	id := uuid.New().String()
	session := models.NewNavigationSession(id, start, goal, path, s.clock.Now())
	log.Printf("🗺️  A* route (%d cells): %v", len(path), path)

	// taken before the worker starts writing session
	initial := session.Snapshot()
	s.record(models.EventNavigationStart, initial, "")
	s.emit(models.StatusNavigationStarted, initial)

	wctx, cancel := context.WithCancel(ctx)
	w := &worker{session: session, cancel: cancel, done: make(chan struct{})}
	s.loop.reset(session)
	go func() {
		defer close(w.done)
		if err := s.loop.Run(wctx, session); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️ control loop ended: %v", err)
		}
	}()

	s.active = w
	s.state = StateNavigating
	return startResult{path: path, session: id}
}

// halt - cancel the worker, wait (bounded) for it to exit, then stop the
// motors. Safe to call with no active worker. A worker that misses the
// join keeps its session; only the loop's published snapshot is read.
func (s *NavigationSupervisor) halt(ctx context.Context, reason string) {
	var (
		snap    models.NavigationSnapshot
		stopped bool
	)
	if s.active != nil {
		s.state = StateStopping
		w := s.active
		w.cancel()
		select {
		case <-w.done:
			w.session.Running = false
			snap = w.session.Snapshot()
		case <-time.After(s.joinTimeout):
			log.Printf("⚠️ control loop did not exit within %v, abandoning session %s", s.joinTimeout, w.session.ID)
			snap = s.abandonedSnapshot(w.session.ID)
		}
		stopped = true
		s.active = nil
	}

	stopCtx := ctx
	if ctx.Err() != nil {
		stopCtx = context.Background()
	}
	if err := s.actuator.Send(stopCtx, models.CommandStop, models.DefaultSpeed); err != nil {
		log.Printf("❌ stop command: %v", err)
	}
	s.loop.MarkStopped()
	s.state = StateIdle

	if stopped {
		log.Printf("🛑 navigation stopped: session=%s at %v", snap.SessionID, snap.AssumedPosition)
		s.record(models.EventNavigationStop, snap, reason)
		s.emit(models.StatusStopped, snap)
	}
}

// abandonedSnapshot - last published state of a worker that is still running
func (s *NavigationSupervisor) abandonedSnapshot(id string) models.NavigationSnapshot {
	if _, snap, ok := s.loop.Latest(); ok && snap.SessionID == id {
		snap.Running = false
		return snap
	}
	return models.NavigationSnapshot{SessionID: id}
}

func (s *NavigationSupervisor) snapshotStatus() SupervisorStatus {
	st := SupervisorStatus{State: s.state}
	if _, snap, ok := s.loop.Latest(); ok {
		st.Session = &snap
	}
	return st
}

func (s *NavigationSupervisor) emit(status string, snap models.NavigationSnapshot) {
	if s.notify == nil {
		return
	}
	s.notify(models.NavigationEvent{
		Status:    status,
		SessionID: snap.SessionID,
		Position:  snap.AssumedPosition,
		Timestamp: s.clock.Now().UnixMilli(),
	})
}

func (s *NavigationSupervisor) record(eventType string, snap models.NavigationSnapshot, reason string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(models.NavigationLog{
		CreatedAt:    s.clock.Now(),
		EventType:    eventType,
		SessionID:    snap.SessionID,
		Row:          snap.AssumedPosition.Row,
		Col:          snap.AssumedPosition.Col,
		Heading:      snap.Heading.String(),
		PathIndex:    snap.PathIndex,
		Speed:        snap.Speed,
		TrafficLight: string(snap.TrafficLight),
		Reason:       reason,
	})
}

func (s *NavigationSupervisor) recordFor(eventType string, start, goal models.Cell) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(models.NavigationLog{
		CreatedAt: s.clock.Now(),
		EventType: eventType,
		Row:       start.Row,
		Col:       start.Col,
		Reason:    fmt.Sprintf("%v -> %v", start, goal),
	})
}
