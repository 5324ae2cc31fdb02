package models

import (
	"time"
)

// Navigation event types stored in NavigationLog.EventType
const (
	EventNavigationStart = "navigation_start"
	EventNavigationStop  = "navigation_stop"
	EventArrived         = "arrived"
	EventNoRoute         = "no_route"
	EventCommand         = "command"
	EventDetection       = "detection"
	EventTickError       = "tick_error"
)

// NavigationLog - robot behaviour log
type NavigationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	EventType string    `gorm:"index;size:32" json:"event_type"`
	SessionID string    `gorm:"index;size:36" json:"session_id"`

	// Assumed position
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Heading   string `json:"heading"`
	PathIndex int    `json:"path_index"`

	// Drive state
	Speed        int    `json:"speed"`
	Command      string `json:"command"`
	TrafficLight string `json:"traffic_light"`

	// Perception
	Labels  string  `json:"labels"` // comma-separated detection labels
	RangeCM float64 `json:"range_cm"`

	Reason string `json:"reason"`
}

// LogSummary - per-session counters
type LogSummary struct {
	SessionID   string           `json:"session_id"`
	EventCounts map[string]int64 `json:"event_counts"`
	Total       int64            `json:"total"`
}
