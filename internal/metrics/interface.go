// Per-frame measurements of the edge detection output
package metrics

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// Metric measures one property of a processed frame. magnitude is the
// blended gradient frame, output the same frame after thresholding.
type Metric interface {
	Calculate(magnitude, output gocv.Mat) (float64, error)
	GetName() string
	GetDescription() string
	GetRange() (float64, float64)
}

const (
	MetricEdgeDensity    = "edge_density"
	MetricMeanMagnitude  = "mean_magnitude"
	MetricEnergyRetained = "energy_retained"
)

// MetricInfo is the display metadata of a registered metric
type MetricInfo struct {
	Name        string
	Description string
	Range       [2]float64
}

// Evaluator runs a named set of metrics over each frame
type Evaluator struct {
	byName map[string]Metric
}

// NewEvaluator returns an evaluator with edge density, mean magnitude and
// retained energy registered.
func NewEvaluator() *Evaluator {
	e := &Evaluator{byName: map[string]Metric{}}
	e.RegisterDefaultMetrics()
	return e
}

func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(MetricEdgeDensity, NewEdgeDensity())
	e.Register(MetricMeanMagnitude, NewMeanMagnitude())
	e.Register(MetricEnergyRetained, NewEnergyRetained())
}

// Register adds m under name, replacing any metric already there
func (e *Evaluator) Register(name string, m Metric) {
	e.byName[name] = m
}

func (e *Evaluator) Calculate(name string, magnitude, output gocv.Mat) (float64, error) {
	m, ok := e.byName[name]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", name)
	}
	return m.Calculate(magnitude, output)
}

// CalculateAll returns every metric that could be computed for the frame.
// Failing metrics are left out of the result.
func (e *Evaluator) CalculateAll(magnitude, output gocv.Mat) map[string]float64 {
	values := make(map[string]float64, len(e.byName))
	for name, m := range e.byName {
		v, err := m.Calculate(magnitude, output)
		if err != nil {
			continue
		}
		values[name] = v
	}
	return values
}

// Names lists registered metrics alphabetically
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.byName))
	for name := range e.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Evaluator) GetMetricInfo() map[string]MetricInfo {
	info := make(map[string]MetricInfo, len(e.byName))
	for name, m := range e.byName {
		lo, hi := m.GetRange()
		info[name] = MetricInfo{Name: m.GetName(), Description: m.GetDescription(), Range: [2]float64{lo, hi}}
	}
	return info
}
