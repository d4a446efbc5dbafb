// internal/core/processor.go
// Single-threaded capture -> process -> display -> write loop
package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"edge-video-processing/internal/algorithms"
	"edge-video-processing/internal/config"
	"edge-video-processing/internal/frame"
	"edge-video-processing/internal/gui"
	"edge-video-processing/internal/metrics"
	"edge-video-processing/internal/stats"
	"edge-video-processing/internal/video"
)

// FrameRecorder receives one record per processed frame
type FrameRecorder interface {
	BeginRun(info stats.RunInfo) error
	RecordFrame(rec stats.FrameRecord) error
	Close() error
}

// Backends opens the external collaborators of the loop. Replacing them
// lets the loop run against fakes.
type Backends struct {
	OpenSource   func(cfg config.Config, logger *logrus.Logger) (video.Source, error)
	OpenSink     func(cfg config.Config, props video.Properties, logger *logrus.Logger) (video.Sink, error)
	OpenDisplay  func(params *algorithms.Params, logger *logrus.Logger) gui.Display
	OpenRecorder func(path string) (FrameRecorder, error)
}

// DefaultBackends uses OpenCV capture, writer and highgui windows, and
// SQLite for statistics.
func DefaultBackends() Backends {
	return Backends{
		OpenSource: func(cfg config.Config, logger *logrus.Logger) (video.Source, error) {
			src, err := video.OpenSource(cfg, logger)
			if err != nil {
				return nil, err
			}
			return src, nil
		},
		OpenSink: func(cfg config.Config, props video.Properties, logger *logrus.Logger) (video.Sink, error) {
			sink, err := video.OpenSink(cfg, props, logger)
			if err != nil {
				return nil, err
			}
			return sink, nil
		},
		OpenDisplay: func(params *algorithms.Params, logger *logrus.Logger) gui.Display {
			return gui.NewWindowDisplay(params, logger)
		},
		OpenRecorder: func(path string) (FrameRecorder, error) {
			rec, err := stats.Open(path)
			if err != nil {
				return nil, err
			}
			return rec, nil
		},
	}
}

// ExitReason says why the loop stopped
type ExitReason int

const (
	EndOfStream ExitReason = iota
	ExitKeyPressed
)

func (r ExitReason) String() string {
	switch r {
	case EndOfStream:
		return "end of stream"
	case ExitKeyPressed:
		return "exit key"
	}
	return fmt.Sprintf("ExitReason(%d)", int(r))
}

// Summary describes a finished run
type Summary struct {
	Frames     int
	Reason     ExitReason
	SinkActive bool // a sink was open when the loop ended
	SinkFrames int
}

// Processor owns one run of the frame processing loop
type Processor struct {
	cfg      config.Config
	logger   *logrus.Logger
	backends Backends
	pipeline *Pipeline
	eval     *metrics.Evaluator
}

// NewProcessor builds the default pipeline for cfg.
func NewProcessor(cfg config.Config, logger *logrus.Logger, backends Backends) (*Processor, error) {
	pipeline, err := DefaultPipeline(logger)
	if err != nil {
		return nil, err
	}

	return &Processor{
		cfg:      cfg,
		logger:   logger,
		backends: backends,
		pipeline: pipeline,
		eval:     metrics.NewEvaluator(),
	}, nil
}

// Run acquires the source, then processes frames until the source runs
// dry or the exit key is pressed. A source that cannot be opened or
// yields no first frame is returned as an error wrapping
// video.ErrSourceUnavailable or video.ErrNoFrame. A sink or recorder
// that fails is logged and disabled; the loop carries on without it.
func (p *Processor) Run() (Summary, error) {
	var summary Summary

	src, err := p.backends.OpenSource(p.cfg, p.logger)
	if err != nil {
		p.logger.WithField("source", p.cfg.SourceName()).WithError(err).Error("Can't find video source")
		return summary, err
	}
	defer src.Close()
	props := src.Properties()

	buf := frame.NewBuffer()
	defer buf.Close()

	// The first frame is read ahead and becomes iteration 1.
	if !src.Read(&buf.Input) {
		p.logger.WithField("source", p.cfg.SourceName()).Error("Can't read data from the video source")
		return summary, fmt.Errorf("%w: %s", video.ErrNoFrame, p.cfg.SourceName())
	}

	sink := p.openSink(props)
	defer func() {
		if sink != nil {
			sink.Close()
		}
	}()

	recorder := p.openRecorder(props)
	defer func() {
		if recorder != nil {
			recorder.Close()
		}
	}()

	params := algorithms.NewParams(p.cfg)
	display := p.backends.OpenDisplay(params, p.logger)
	defer display.Close()

	p.logger.WithFields(logrus.Fields{
		"stages":      p.pipeline.Stages(),
		"blur_radius": params.BlurRadius,
		"threshold":   params.Threshold,
	}).Debug("PIPELINE: Entering processing loop")

	pending := true
	for {
		if !pending && !src.Read(&buf.Input) {
			summary.Reason = EndOfStream
			break
		}
		pending = false

		summary.Frames++
		buf.Index = summary.Frames

		start := time.Now()
		if err := p.pipeline.Process(buf, params); err != nil {
			return summary, fmt.Errorf("process frame %d: %w", buf.Index, err)
		}
		elapsed := time.Since(start)
		p.pipeline.Debugger().LogFrame(elapsed)

		display.Show(buf.Input, buf.Output)

		if sink != nil {
			if err := sink.Write(buf.Output); err != nil {
				p.logger.WithField("frame", buf.Index).WithError(err).Warn("Output write failed, continuing without output file")
				sink.Close()
				sink = nil
			} else {
				summary.SinkFrames++
			}
		}

		p.observe(buf, params, elapsed, &recorder)

		key := display.WaitKey(p.cfg.KeyWait)
		display.Sync(params)
		if key >= 0 && key&0xFF == p.cfg.ExitKey {
			summary.Reason = ExitKeyPressed
			break
		}
	}

	summary.SinkActive = sink != nil
	p.pipeline.Debugger().LogSummary()
	p.logger.WithFields(logrus.Fields{
		"frames":      summary.Frames,
		"reason":      summary.Reason.String(),
		"sink_frames": summary.SinkFrames,
	}).Info("Processing finished")

	return summary, nil
}

// openSink returns nil in display-only mode and when the writer fails.
func (p *Processor) openSink(props video.Properties) video.Sink {
	if !p.cfg.WriteOutput() {
		return nil
	}

	sink, err := p.backends.OpenSink(p.cfg, props, p.logger)
	if err != nil {
		p.logger.WithField("output", p.cfg.OutputPath).WithError(err).Warn("FAILED TO OPEN OUTPUT VIDEO FILE")
		return nil
	}
	return sink
}

func (p *Processor) openRecorder(props video.Properties) FrameRecorder {
	if p.cfg.StatsPath == "" {
		return nil
	}

	rec, err := p.backends.OpenRecorder(p.cfg.StatsPath)
	if err != nil {
		p.logger.WithField("stats", p.cfg.StatsPath).WithError(err).Warn("Failed to open stats database, statistics disabled")
		return nil
	}

	err = rec.BeginRun(stats.RunInfo{
		Source:    p.cfg.SourceName(),
		Output:    p.cfg.OutputPath,
		Width:     props.Width,
		Height:    props.Height,
		SourceFPS: props.FPS,
	})
	if err != nil {
		p.logger.WithField("stats", p.cfg.StatsPath).WithError(err).Warn("Failed to start stats run, statistics disabled")
		rec.Close()
		return nil
	}
	return rec
}

// observe logs the frame's levels and feeds the recorder. Metrics are
// only computed when someone will read them.
func (p *Processor) observe(buf *frame.Buffer, params *algorithms.Params, elapsed time.Duration, recorder *FrameRecorder) {
	debug := p.logger.IsLevelEnabled(logrus.DebugLevel)
	if *recorder == nil && !debug {
		return
	}

	values := p.eval.CalculateAll(buf.Magnitude, buf.Output)

	if debug {
		fields := logrus.Fields{
			"frame":       buf.Index,
			"blur_radius": params.BlurRadius,
			"threshold":   params.Threshold,
			"min":         buf.Levels.Min,
			"max":         buf.Levels.Max,
			"effective":   buf.Levels.Effective,
			"elapsed":     elapsed,
		}
		for name, v := range values {
			fields[name] = v
		}
		p.logger.WithFields(fields).Debug("PIPELINE: Frame processed")
	}

	if *recorder == nil {
		return
	}
	err := (*recorder).RecordFrame(stats.FrameRecord{
		Index:      buf.Index,
		BlurRadius: params.BlurRadius,
		Threshold:  params.Threshold,
		Min:        buf.Levels.Min,
		Max:        buf.Levels.Max,
		Effective:  buf.Levels.Effective,
		Metrics:    values,
		Duration:   elapsed,
	})
	if err != nil {
		p.logger.WithField("frame", buf.Index).WithError(err).Warn("Failed to record frame, statistics disabled")
		(*recorder).Close()
		*recorder = nil
	}
}
