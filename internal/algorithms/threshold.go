package algorithms

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"edge-video-processing/internal/config"
	"edge-video-processing/internal/frame"
)

// EffectiveThreshold rescales a 0-255 level into the observed [min, max]
// range of the current magnitude frame.
func EffectiveThreshold(minVal, maxVal float64, level int) float64 {
	level = clamp(level, 0, config.MaxThreshold)
	return minVal + (maxVal-minVal)*(float64(level)/float64(config.MaxThreshold))
}

// ThresholdCutoff converts an effective threshold into the value passed to
// gocv.Threshold. OpenCV keeps pixels strictly greater than the cutoff, so
// the cutoff sits one below the smallest integer not less than the
// threshold; pixels equal to the threshold are kept.
func ThresholdCutoff(effective float64) float32 {
	return float32(math.Ceil(effective-1e-9) - 1)
}

// ApplyThresholdToZero zeroes every pixel of src below effective and
// copies the rest unchanged into dst.
func ApplyThresholdToZero(src gocv.Mat, dst *gocv.Mat, effective float64) {
	gocv.Threshold(src, dst, ThresholdCutoff(effective), 0, gocv.ThresholdToZero)
}

// ThresholdToZero measures the magnitude frame's range, rescales the
// threshold level into it and zeroes everything below.
type ThresholdToZero struct{}

func NewThresholdToZero() *ThresholdToZero {
	return &ThresholdToZero{}
}

func (t *ThresholdToZero) Apply(buf *frame.Buffer, params *Params) error {
	if buf.Magnitude.Empty() {
		return fmt.Errorf("magnitude image is empty")
	}

	minVal, maxVal, _, _ := gocv.MinMaxLoc(buf.Magnitude)
	effective := EffectiveThreshold(float64(minVal), float64(maxVal), params.Threshold)

	buf.Levels = frame.Levels{
		Min:       float64(minVal),
		Max:       float64(maxVal),
		Effective: effective,
	}

	ApplyThresholdToZero(buf.Magnitude, &buf.Output, effective)
	return nil
}

func (t *ThresholdToZero) GetName() string {
	return "Threshold To Zero"
}

func (t *ThresholdToZero) GetDescription() string {
	return "Zero pixels below the per-frame rescaled threshold, keep the rest"
}
