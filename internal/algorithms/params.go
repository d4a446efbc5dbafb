package algorithms

import (
	"fmt"

	"edge-video-processing/internal/config"
)

// Live parameter names
const (
	ParamBlurRadius = "blur_radius"
	ParamThreshold  = "threshold"
)

// Views hosting the parameter controls
const (
	ViewInput  = "input"
	ViewOutput = "output"
)

// Params are the two live-adjustable values read once per frame. The
// control layer updates them in place between iterations.
type Params struct {
	BlurRadius int
	Threshold  int
}

// ParameterInfo describes a parameter for UI generation
type ParameterInfo struct {
	Name        string
	Label       string
	View        string
	Min         int
	Max         int
	Default     int
	Description string
}

// NewParams builds the initial parameter set from the configuration,
// clamping values into their declared bounds.
func NewParams(cfg config.Config) *Params {
	p := &Params{
		BlurRadius: cfg.BlurRadius,
		Threshold:  cfg.Threshold,
	}
	p.Clamp()
	return p
}

// Clamp forces both values into their declared bounds.
func (p *Params) Clamp() {
	p.BlurRadius = clamp(p.BlurRadius, 0, config.MaxBlurRadius)
	p.Threshold = clamp(p.Threshold, 0, config.MaxThreshold)
}

// Value returns the named parameter.
func (p *Params) Value(name string) (int, error) {
	switch name {
	case ParamBlurRadius:
		return p.BlurRadius, nil
	case ParamThreshold:
		return p.Threshold, nil
	}
	return 0, fmt.Errorf("unknown parameter: %s", name)
}

// Set stores the named parameter without further validation; the
// control widget already enforces the bounds.
func (p *Params) Set(name string, value int) error {
	switch name {
	case ParamBlurRadius:
		p.BlurRadius = value
	case ParamThreshold:
		p.Threshold = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// GetParameterInfo lists the controls, one per view.
func GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        ParamBlurRadius,
			Label:       "Blur radius",
			View:        ViewInput,
			Min:         0,
			Max:         config.MaxBlurRadius,
			Default:     config.DefaultBlurRadius,
			Description: "Gaussian blur radius; kernel size is 2*radius+1",
		},
		{
			Name:        ParamThreshold,
			Label:       "Threshold",
			View:        ViewOutput,
			Min:         0,
			Max:         config.MaxThreshold,
			Default:     config.DefaultThreshold,
			Description: "Threshold level rescaled into the frame's gradient range",
		},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
