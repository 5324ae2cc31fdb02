package models

// GridInfo - static grid description served to the web client
type GridInfo struct {
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
	Obstacles []Cell `json:"obstacles"`
}
