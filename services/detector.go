package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"pbl5-backend/models"
)

// RemoteDetector - object detection served by an external inference
// process. The frame is POSTed as image/jpeg, the reply is
// {"detections":[{"label","x1","y1","x2","y2"}]}.
type RemoteDetector struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
	Annotate   bool
}

// NewRemoteDetector - RemoteDetector from config
func NewRemoteDetector(cfg Config) *RemoteDetector {
	return &RemoteDetector{
		URL:        cfg.DetectorURL,
		Timeout:    cfg.RequestTimeout,
		HTTPClient: &http.Client{},
		Annotate:   true,
	}
}

type detectResponse struct {
	Detections []models.Detection `json:"detections"`
}

// Detect - runs detection on frame and returns the annotated frame
func (d *RemoteDetector) Detect(ctx context.Context, frame []byte) ([]models.Detection, []byte, error) {
	if len(frame) == 0 {
		return nil, nil, ErrNoFrame
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(frame))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("detector read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("detector status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out detectResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, nil, fmt.Errorf("detector decode: %w", err)
	}
	if out.Detections == nil {
		out.Detections = []models.Detection{}
	}

	annotated := frame
	if d.Annotate && len(out.Detections) > 0 {
		if img, err := AnnotateFrame(frame, out.Detections); err != nil {
			log.Printf("⚠️ annotate frame: %v", err)
		} else {
			annotated = img
		}
	}
	return out.Detections, annotated, nil
}
