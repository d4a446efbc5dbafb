// Stage system for the per-frame edge detection sequence
package algorithms

import (
	"fmt"
	"sort"

	"edge-video-processing/internal/frame"
)

// Stage defines one step of the per-frame processing sequence. A stage
// reads and writes named slots of the shared frame buffer.
type Stage interface {
	Apply(buf *frame.Buffer, params *Params) error
	GetName() string
	GetDescription() string
}

// Registered stage names, in processing order
const (
	StageBlur      = "gaussian_blur"
	StageGreyscale = "greyscale"
	StageGradient  = "scharr_gradient"
	StageMagnitude = "magnitude"
	StageThreshold = "threshold_to_zero"
)

// DefaultOrder is the fixed blur -> greyscale -> gradient -> threshold sequence.
var DefaultOrder = []string{
	StageBlur,
	StageGreyscale,
	StageGradient,
	StageMagnitude,
	StageThreshold,
}

var stages = make(map[string]Stage)

func Register(name string, stage Stage) {
	stages[name] = stage
}

func Get(name string) (Stage, bool) {
	stage, exists := stages[name]
	return stage, exists
}

func Apply(name string, buf *frame.Buffer, params *Params) error {
	stage, exists := stages[name]
	if !exists {
		return fmt.Errorf("stage not found: %s", name)
	}

	return stage.Apply(buf, params)
}

func IsValidStage(name string) bool {
	_, exists := stages[name]
	return exists
}

// Names returns the registered stage names sorted alphabetically.
func Names() []string {
	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(StageBlur, NewGaussianBlur())
	Register(StageGreyscale, NewGreyscale())
	Register(StageGradient, NewScharrGradient())
	Register(StageMagnitude, NewMagnitude())
	Register(StageThreshold, NewThresholdToZero())
}
