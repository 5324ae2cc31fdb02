package services

import (
	"pbl5-backend/models"
)

// Car proximity thresholds (bounding-box height in pixels) and the
// ultrasonic distance treated as "close"
const (
	CarStopHeight = 300
	CarSlowHeight = 200
	CarFarHeight  = 100
	CloseRangeCM  = 10
)

// Arbitration reasons, also stored in the event log
const (
	ReasonRedLight      = "red_light"
	ReasonRedLatched    = "red_light_latched"
	ReasonNoEntry       = "no_entry"
	ReasonCarTooClose   = "car_too_close"
	ReasonCarNear       = "car_near"
	ReasonCarFar        = "car_far"
	ReasonCarTracking   = "car_tracking"
	ReasonObstacleNear  = "obstacle_near"
	ReasonClear         = "clear"
	ReasonArrived       = "arrived"
	ReasonStopRequested = "stop_requested"
)

// Decision - outcome of one arbitration pass.
// Final decisions (stops and slow-downs) suppress route advancement for
// the tick.
type Decision struct {
	Command models.ActuatorCommand
	Final   bool
	Reason  string
}

func stop(reason string) Decision {
	return Decision{Command: models.CommandStop, Final: true, Reason: reason}
}

func forward(final bool, reason string) Decision {
	return Decision{Command: models.CommandMoveForward, Final: final, Reason: reason}
}

// Arbitrate - fuses detections and the range reading into one decision.
// Only session.Speed and session.Latch are modified. First match wins:
// red light, latched red, no-entry sign, car proximity, close obstacle.
func Arbitrate(s *models.NavigationSession, detections []models.Detection, reading models.RangeReading) Decision {
	switch {
	case models.HasLabel(detections, models.LabelRedLight):
		s.Latch = models.LightRed
		return stop(ReasonRedLight)
	case models.HasLabel(detections, models.LabelGreenLight):
		s.Latch = models.LightGreen
	case s.Latch == models.LightRed:
		return stop(ReasonRedLatched)
	}

	if models.HasLabel(detections, models.LabelNoEntry) {
		return stop(ReasonNoEntry)
	}

	if car, ok := models.FindLabel(detections, models.LabelCar); ok {
		h := car.Height()
		switch {
		case h > CarStopHeight:
			return stop(ReasonCarTooClose)
		case h > CarSlowHeight:
			s.SlowDown()
			return forward(true, ReasonCarNear)
		case h < CarFarHeight && !reading.Closer(CloseRangeCM):
			s.SpeedUp()
			return forward(false, ReasonCarFar)
		default:
			return forward(false, ReasonCarTracking)
		}
	}

	if reading.Closer(CloseRangeCM) {
		s.SlowDown()
		return forward(true, ReasonObstacleNear)
	}
	return forward(false, ReasonClear)
}
