package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pbl5-backend/models"
)

// ESP32 endpoints
const (
	esp32CameraPath     = "/cam.jpg"
	esp32CommandPath    = "/command"
	esp32UltrasonicPath = "/ultrasonic"
)

// ESP32Client - camera, ultrasonic sensor and drive board of the ESP32-CAM.
// Calls are bounded by their timeouts and never retried.
type ESP32Client struct {
	BaseURL        string
	RequestTimeout time.Duration
	CommandTimeout time.Duration
	HTTPClient     *http.Client
}

// NewESP32Client - ESP32Client from config
func NewESP32Client(cfg Config) *ESP32Client {
	return &ESP32Client{
		BaseURL:        cfg.ESP32BaseURL,
		RequestTimeout: cfg.RequestTimeout,
		CommandTimeout: cfg.CommandTimeout,
		HTTPClient:     &http.Client{},
	}
}

// FormatCommand - "S" for stop, otherwise "<cmd>,<left>,<right>"
func FormatCommand(cmd models.ActuatorCommand, speed int) string {
	if cmd == models.CommandStop {
		return string(models.CommandStop)
	}
	s := strconv.Itoa(speed)
	return string(cmd) + "," + s + "," + s
}

// Send - GET /command?cmd=...
func (c *ESP32Client) Send(ctx context.Context, cmd models.ActuatorCommand, speed int) error {
	full := FormatCommand(cmd, speed)
	q := url.Values{"cmd": {full}}
	body, status, err := c.get(ctx, esp32CommandPath+"?"+q.Encode(), c.CommandTimeout)
	if err != nil {
		return fmt.Errorf("send command %s: %w", full, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("send command %s: status %d: %s", full, status, bytes.TrimSpace(body))
	}
	return nil
}

type ultrasonicResponse struct {
	Distance *float64 `json:"distance"`
}

// ReadDistance - GET /ultrasonic. Out of range readings come back as
// InvalidRange without an error.
func (c *ESP32Client) ReadDistance(ctx context.Context) (models.RangeReading, error) {
	body, status, err := c.get(ctx, esp32UltrasonicPath, c.RequestTimeout)
	if err != nil {
		return models.InvalidRange, fmt.Errorf("read ultrasonic: %w", err)
	}
	if status != http.StatusOK {
		return models.InvalidRange, fmt.Errorf("read ultrasonic: status %d", status)
	}
	var resp ultrasonicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.InvalidRange, fmt.Errorf("read ultrasonic: %w", err)
	}
	if resp.Distance == nil {
		return models.InvalidRange, nil
	}
	reading := models.NewRangeReading(*resp.Distance)
	if !reading.Valid() {
		log.Printf("⚠️ ultrasonic reading out of range: %.1f cm", *resp.Distance)
	}
	return reading, nil
}

// Capture - GET /cam.jpg; the body must decode as a JPEG
func (c *ESP32Client) Capture(ctx context.Context) ([]byte, error) {
	body, status, err := c.get(ctx, esp32CameraPath, c.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrNoFrame, status)
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNoFrame, err)
	}
	return body, nil
}

func (c *ESP32Client) get(ctx context.Context, path string, timeout time.Duration) ([]byte, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
