// Smoothing and colour conversion stages
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"edge-video-processing/internal/frame"
)

// KernelSize converts a blur radius into the odd kernel edge length.
func KernelSize(radius int) int {
	return 2*radius + 1
}

// GaussianBlur implements Gaussian blur filter
type GaussianBlur struct{}

// NewGaussianBlur creates a new Gaussian blur stage
func NewGaussianBlur() *GaussianBlur {
	return &GaussianBlur{}
}

// Apply blurs the input frame in place so the displayed input shows the
// smoothing. Sigma is derived from the kernel size.
func (g *GaussianBlur) Apply(buf *frame.Buffer, params *Params) error {
	if buf.Input.Empty() {
		return fmt.Errorf("input image is empty")
	}

	k := KernelSize(params.BlurRadius)
	if err := gocv.GaussianBlur(buf.Input, &buf.Input, image.Pt(k, k), 0, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("gaussian blur with kernel %d: %w", k, err)
	}

	return nil
}

func (g *GaussianBlur) GetName() string {
	return "Gaussian Blur"
}

func (g *GaussianBlur) GetDescription() string {
	return "Separable Gaussian smoothing with a (2r+1)x(2r+1) kernel"
}

// Greyscale converts the colour frame to a single channel
type Greyscale struct{}

func NewGreyscale() *Greyscale {
	return &Greyscale{}
}

func (g *Greyscale) Apply(buf *frame.Buffer, params *Params) error {
	if buf.Input.Empty() {
		return fmt.Errorf("input image is empty")
	}

	err := gocv.CvtColor(buf.Input, &buf.Grey, gocv.ColorBGRToGray)
	if err != nil {
		return fmt.Errorf("failed to convert to greyscale: %w", err)
	}
	return nil
}

func (g *Greyscale) GetName() string {
	return "Greyscale"
}

func (g *Greyscale) GetDescription() string {
	return "BGR to single channel conversion"
}
