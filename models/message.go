package models

import "time"

// ========================================
// Message type constants
// ========================================
const (
	// Server → Web
	MessageTypeTelemetry  = "telemetry"   // camera frame + detections + range
	MessageTypeNavigation = "navigation"  // session started/stopped/arrived
	MessageTypeSystemInfo = "system_info" // welcome / server info
)

// ========================================
// Common WebSocket envelope
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// ========================================
// Telemetry frame
// ========================================

// TelemetryFrame - periodic stream payload. The web client reads
// image/detections/ultrasonic_distance at the top level, so the frame is
// sent without the envelope.
type TelemetryFrame struct {
	Type               string              `json:"type"`
	Image              string              `json:"image"` // base64 JPEG (annotated)
	Detections         []Detection         `json:"detections"`
	UltrasonicDistance RangeReading        `json:"ultrasonic_distance"`
	Navigation         *NavigationSnapshot `json:"navigation,omitempty"`
	Timestamp          int64               `json:"timestamp"`
}

// ========================================
// Navigation control API
// ========================================

// NavigationRequest - POST /start-navigation body
type NavigationRequest struct {
	Start *Cell `json:"start"`
	End   *Cell `json:"end"`
}

// NavigationResponse - start/stop reply
type NavigationResponse struct {
	Path      Path   `json:"path,omitempty"`
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Navigation status values
const (
	StatusNavigationStarted = "navigation_started"
	StatusStopped           = "stopped"
	StatusNoRoute           = "no_route"
	StatusInvalidRequest    = "invalid_request"
	StatusArrived           = "arrived"
)

// NavigationEvent - broadcast when a session changes lifecycle state
type NavigationEvent struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Position  Cell   `json:"assumed_position"`
	Timestamp int64  `json:"timestamp"`
}

// PathfindingRequest - plan preview, no session is started
type PathfindingRequest struct {
	Start *Cell `json:"start"`
	Goal  *Cell `json:"goal"`
}

// PathfindingResponse - plan preview result
type PathfindingResponse struct {
	Success bool   `json:"success"`
	Path    Path   `json:"path,omitempty"`
	Steps   int    `json:"steps"`
	Message string `json:"message,omitempty"`
}

// ========================================
// System info
// ========================================
type SystemInfo struct {
	ConnectedClients int       `json:"connected_clients"`
	RobotMode        string    `json:"robot_mode"`
	ServerTime       time.Time `json:"server_time"`
	Uptime           int64     `json:"uptime"` // seconds
}
