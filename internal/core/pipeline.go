// internal/core/pipeline.go
// Static ordered stage list applied to the shared frame buffer
package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"edge-video-processing/internal/algorithms"
	"edge-video-processing/internal/frame"
)

// ProcessingStep is one resolved stage of the pipeline
type ProcessingStep struct {
	Name  string
	Stage algorithms.Stage
}

// Pipeline runs a fixed sequence of stages over a frame buffer
type Pipeline struct {
	steps    []ProcessingStep
	logger   *logrus.Logger
	debugger *PipelineDebugger
}

// NewPipeline resolves the named stages from the registry, in order.
func NewPipeline(logger *logrus.Logger, names ...string) (*Pipeline, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one stage")
	}

	steps := make([]ProcessingStep, 0, len(names))
	for _, name := range names {
		stage, ok := algorithms.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown stage: %s", name)
		}
		steps = append(steps, ProcessingStep{Name: name, Stage: stage})
	}

	return &Pipeline{
		steps:    steps,
		logger:   logger,
		debugger: NewPipelineDebugger(logger),
	}, nil
}

// DefaultPipeline is blur -> greyscale -> gradient -> magnitude -> threshold.
func DefaultPipeline(logger *logrus.Logger) (*Pipeline, error) {
	return NewPipeline(logger, algorithms.DefaultOrder...)
}

// Debugger returns the timing collector, inert unless debug logging is on
func (p *Pipeline) Debugger() *PipelineDebugger {
	return p.debugger
}

// Stages returns the stage names in processing order
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name
	}
	return names
}

// Process applies every stage to buf using the current params. The
// buffer's input slot must hold a colour frame.
func (p *Pipeline) Process(buf *frame.Buffer, params *algorithms.Params) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	buf.Reset()

	for i, step := range p.steps {
		start := time.Now()
		err := step.Stage.Apply(buf, params)
		p.debugger.LogStage(step.Name, time.Since(start), err)
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"step":  i,
				"stage": step.Name,
				"frame": buf.Index,
			}).WithError(err).Error("PIPELINE: Step failed")
			return fmt.Errorf("stage %s: %w", step.Name, err)
		}
	}

	return nil
}
