// Concrete implementations of the per-frame metrics
package metrics

import (
	"fmt"

	"gocv.io/x/gocv"
)

func checkPair(magnitude, output gocv.Mat) error {
	if magnitude.Empty() || output.Empty() {
		return fmt.Errorf("empty images")
	}
	if magnitude.Rows() != output.Rows() || magnitude.Cols() != output.Cols() {
		return fmt.Errorf("image dimensions mismatch")
	}
	return nil
}

// EdgeDensity is the fraction of output pixels that survived thresholding
type EdgeDensity struct{}

func NewEdgeDensity() *EdgeDensity {
	return &EdgeDensity{}
}

func (d *EdgeDensity) Calculate(magnitude, output gocv.Mat) (float64, error) {
	if err := checkPair(magnitude, output); err != nil {
		return 0, err
	}
	if output.Channels() != 1 {
		return 0, fmt.Errorf("output must be single channel, got %d", output.Channels())
	}

	total := output.Rows() * output.Cols()
	return float64(gocv.CountNonZero(output)) / float64(total), nil
}

func (d *EdgeDensity) GetName() string {
	return "Edge Density"
}

func (d *EdgeDensity) GetDescription() string {
	return "Fraction of pixels at or above the effective threshold"
}

func (d *EdgeDensity) GetRange() (float64, float64) {
	return 0.0, 1.0
}

// MeanMagnitude is the average gradient magnitude before thresholding
type MeanMagnitude struct{}

func NewMeanMagnitude() *MeanMagnitude {
	return &MeanMagnitude{}
}

func (m *MeanMagnitude) Calculate(magnitude, output gocv.Mat) (float64, error) {
	if magnitude.Empty() {
		return 0, fmt.Errorf("empty images")
	}
	return magnitude.Mean().Val1, nil
}

func (m *MeanMagnitude) GetName() string {
	return "Mean Magnitude"
}

func (m *MeanMagnitude) GetDescription() string {
	return "Average gradient magnitude of the frame"
}

func (m *MeanMagnitude) GetRange() (float64, float64) {
	return 0.0, 255.0
}

// EnergyRetained is the share of total gradient magnitude left in the
// output after thresholding
type EnergyRetained struct{}

func NewEnergyRetained() *EnergyRetained {
	return &EnergyRetained{}
}

func (e *EnergyRetained) Calculate(magnitude, output gocv.Mat) (float64, error) {
	if err := checkPair(magnitude, output); err != nil {
		return 0, err
	}

	in := magnitude.Mean().Val1
	if in == 0 {
		return 1.0, nil
	}
	return output.Mean().Val1 / in, nil
}

func (e *EnergyRetained) GetName() string {
	return "Energy Retained"
}

func (e *EnergyRetained) GetDescription() string {
	return "Output magnitude as a fraction of the input magnitude"
}

func (e *EnergyRetained) GetRange() (float64, float64) {
	return 0.0, 1.0
}
