package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"pbl5-backend/models"
)

const (
	annotateThickness = 2
	annotateQuality   = 80
)

var annotateColor = color.RGBA{R: 255, A: 255}

// AnnotateFrame - draws detection boxes onto a JPEG frame
func AnnotateFrame(frame []byte, detections []models.Detection) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	for _, d := range detections {
		drawBox(canvas, image.Rect(int(d.X1), int(d.Y1), int(d.X2), int(d.Y2)))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: annotateQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBox - rectangle outline clipped to the canvas
func drawBox(canvas *image.RGBA, r image.Rectangle) {
	r = r.Canon().Intersect(canvas.Bounds())
	if r.Empty() {
		return
	}
	fill := image.NewUniform(annotateColor)
	t := annotateThickness
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(canvas, e.Intersect(r), fill, image.Point{}, draw.Src)
	}
}
