package models

// Detection labels produced by the traffic-sign model
const (
	LabelRedLight   = "Red-light"
	LabelGreenLight = "Green-light"
	LabelNoEntry    = "No-entry"
	LabelCar        = "Car"
)

// BoundingBox - pixel coordinates of a detection
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Height - vertical pixel extent, used as a proximity proxy
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Detection - one labeled box from the perception service
type Detection struct {
	Label string `json:"label"`
	BoundingBox
}

// FindLabel - first detection carrying label
func FindLabel(detections []Detection, label string) (Detection, bool) {
	for _, d := range detections {
		if d.Label == label {
			return d, true
		}
	}
	return Detection{}, false
}

// HasLabel - any detection carries label
func HasLabel(detections []Detection, label string) bool {
	_, ok := FindLabel(detections, label)
	return ok
}

// Labels - labels in detection order
func Labels(detections []Detection) []string {
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		labels = append(labels, d.Label)
	}
	return labels
}

// ========================================
// Ultrasonic range
// ========================================

// RangeReading - distance in centimeters; InvalidRange when unavailable
type RangeReading float64

const (
	InvalidRange RangeReading = -1
	MinRangeCM   RangeReading = 0
	MaxRangeCM   RangeReading = 400
)

// NewRangeReading - normalizes readings outside [0, 400] to InvalidRange
func NewRangeReading(cm float64) RangeReading {
	r := RangeReading(cm)
	if !r.Valid() {
		return InvalidRange
	}
	return r
}

// Valid - reading lies within the sensor's range
func (r RangeReading) Valid() bool {
	return r >= MinRangeCM && r <= MaxRangeCM
}

// Closer - valid and strictly below cm
func (r RangeReading) Closer(cm float64) bool {
	return r.Valid() && float64(r) < cm
}
