// Directional gradient and magnitude stages
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"

	"edge-video-processing/internal/frame"
)

// ScharrGradient computes the horizontal and vertical derivatives of the
// greyscale frame and rectifies each into an unsigned 8-bit frame.
type ScharrGradient struct {
	Depth gocv.MatType // intermediate precision, wider than 8 bits
	Scale float64
	Delta float64
}

func NewScharrGradient() *ScharrGradient {
	return &ScharrGradient{
		Depth: gocv.MatTypeCV16S,
		Scale: 2,
		Delta: 0,
	}
}

func (s *ScharrGradient) Apply(buf *frame.Buffer, params *Params) error {
	if buf.Grey.Empty() {
		return fmt.Errorf("greyscale image is empty")
	}

	if err := s.derivative(buf.Grey, &buf.Gradient, &buf.GradX, 1, 0); err != nil {
		return fmt.Errorf("x gradient: %w", err)
	}
	if err := s.derivative(buf.Grey, &buf.Gradient, &buf.GradY, 0, 1); err != nil {
		return fmt.Errorf("y gradient: %w", err)
	}

	return nil
}

// derivative runs one Scharr pass into scratch and rectifies it into dst.
func (s *ScharrGradient) derivative(src gocv.Mat, scratch, dst *gocv.Mat, dx, dy int) error {
	err := gocv.Scharr(src, scratch, s.Depth, dx, dy, s.Scale, s.Delta, gocv.BorderDefault)
	if err != nil {
		return err
	}
	return gocv.ConvertScaleAbs(*scratch, dst, 1, 0)
}

func (s *ScharrGradient) GetName() string {
	return "Scharr Gradient"
}

func (s *ScharrGradient) GetDescription() string {
	return "3x3 Scharr derivatives in x and y, rectified to absolute values"
}

// Magnitude combines the rectified gradients with equal weights
type Magnitude struct {
	WeightX float64
	WeightY float64
	Offset  float64
}

func NewMagnitude() *Magnitude {
	return &Magnitude{WeightX: 0.5, WeightY: 0.5, Offset: 0}
}

func (m *Magnitude) Apply(buf *frame.Buffer, params *Params) error {
	if buf.GradX.Empty() || buf.GradY.Empty() {
		return fmt.Errorf("gradient images are empty")
	}

	err := gocv.AddWeighted(buf.GradX, m.WeightX, buf.GradY, m.WeightY, m.Offset, &buf.Magnitude)
	if err != nil {
		return fmt.Errorf("weighted sum: %w", err)
	}
	return nil
}

func (m *Magnitude) GetName() string {
	return "Gradient Magnitude"
}

func (m *Magnitude) GetDescription() string {
	return "Weighted sum of the x and y gradient frames"
}
