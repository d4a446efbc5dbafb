// internal/core/pipeline_debug.go
// Per-stage timing for debug runs
package core

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineDebugger accumulates stage and frame timings across a run
type PipelineDebugger struct {
	logger  *logrus.Logger
	enabled bool

	stageTimes map[string][]time.Duration
	frameTimes []time.Duration
	failures   int
}

// NewPipelineDebugger is enabled only when the logger emits debug output.
func NewPipelineDebugger(logger *logrus.Logger) *PipelineDebugger {
	return &PipelineDebugger{
		logger:     logger,
		enabled:    logger.IsLevelEnabled(logrus.DebugLevel),
		stageTimes: make(map[string][]time.Duration),
	}
}

// Enabled reports whether timings are being collected
func (pd *PipelineDebugger) Enabled() bool {
	return pd != nil && pd.enabled
}

func (pd *PipelineDebugger) LogStage(stage string, duration time.Duration, err error) {
	if !pd.Enabled() {
		return
	}
	if err != nil {
		pd.failures++
		return
	}
	pd.stageTimes[stage] = append(pd.stageTimes[stage], duration)
}

func (pd *PipelineDebugger) LogFrame(duration time.Duration) {
	if !pd.Enabled() {
		return
	}
	pd.frameTimes = append(pd.frameTimes, duration)
}

// GetStats returns average timings keyed by stage name plus frame totals
func (pd *PipelineDebugger) GetStats() map[string]interface{} {
	if !pd.Enabled() {
		return nil
	}

	stats := map[string]interface{}{
		"frames":   len(pd.frameTimes),
		"failures": pd.failures,
	}
	if len(pd.frameTimes) > 0 {
		stats["avg_frame_time"] = averageDuration(pd.frameTimes)
	}
	for stage, times := range pd.stageTimes {
		stats["avg_"+stage] = averageDuration(times)
	}
	return stats
}

// LogSummary writes the collected averages as one debug entry
func (pd *PipelineDebugger) LogSummary() {
	stats := pd.GetStats()
	if stats == nil {
		return
	}
	pd.logger.WithFields(logrus.Fields(stats)).Debug("PIPELINE: Timing summary")
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}
