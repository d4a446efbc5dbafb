// Shared per-iteration frame storage for the processing stages
package frame

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Levels holds the per-frame observations made by the threshold stage.
type Levels struct {
	Min       float64
	Max       float64
	Effective float64
}

// Buffer owns every Mat touched during one loop iteration. The Mats are
// allocated once and overwritten on each cycle; stages read and write
// named slots instead of passing Mats between each other.
type Buffer struct {
	Input     gocv.Mat // colour frame as read, blurred in place
	Grey      gocv.Mat
	Gradient  gocv.Mat // signed 16-bit intermediate shared by both directions
	GradX     gocv.Mat
	GradY     gocv.Mat
	Magnitude gocv.Mat
	Output    gocv.Mat

	Levels Levels
	Index  int
}

// NewBuffer allocates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		Input:     gocv.NewMat(),
		Grey:      gocv.NewMat(),
		Gradient:  gocv.NewMat(),
		GradX:     gocv.NewMat(),
		GradY:     gocv.NewMat(),
		Magnitude: gocv.NewMat(),
		Output:    gocv.NewMat(),
	}
}

// Reset clears the per-frame observations before the next frame is read.
func (b *Buffer) Reset() {
	b.Levels = Levels{}
}

// Validate checks the input slot holds a usable colour frame.
func (b *Buffer) Validate() error {
	if b.Input.Empty() {
		return fmt.Errorf("input frame is empty")
	}
	if b.Input.Cols() <= 0 || b.Input.Rows() <= 0 {
		return fmt.Errorf("invalid frame dimensions: %dx%d", b.Input.Cols(), b.Input.Rows())
	}
	if ch := b.Input.Channels(); ch != 3 {
		return fmt.Errorf("unsupported number of channels: %d", ch)
	}
	return nil
}

// Close releases all resources
func (b *Buffer) Close() {
	for _, m := range []*gocv.Mat{&b.Input, &b.Grey, &b.Gradient, &b.GradX, &b.GradY, &b.Magnitude, &b.Output} {
		m.Close()
	}
}
