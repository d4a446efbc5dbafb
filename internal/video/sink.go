package video

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"edge-video-processing/internal/config"
)

var (
	// ErrSinkUnavailable means the output writer did not open.
	ErrSinkUnavailable = errors.New("failed to open output video file")
	// ErrFrameSize means a frame does not match the sink's fixed size.
	ErrFrameSize = errors.New("frame size does not match output size")
)

// Sink defines a destination for a stream of greyscale frames.
type Sink interface {
	// Write appends a frame. Every frame must match the size the sink was
	// opened with.
	Write(m gocv.Mat) error

	// Close should be called to finalize the Sink.
	Close() error
}

// FileSink writes greyscale frames through gocv.VideoWriter at a fixed
// rate and size.
type FileSink struct {
	writer *gocv.VideoWriter
	path   string
	width  int
	height int
	frames int
}

// OpenSink opens cfg.OutputPath sized to the source's reported frame
// size. The rate is always cfg.OutputFPS, whatever the source reports.
func OpenSink(cfg config.Config, props Properties, logger *logrus.Logger) (*FileSink, error) {
	logger.WithField("output", cfg.OutputPath).Info("Output file")

	writer, err := gocv.VideoWriterFile(cfg.OutputPath, cfg.Codec, cfg.OutputFPS, props.Width, props.Height, false)
	if err != nil {
		if writer != nil {
			writer.Close()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, cfg.OutputPath, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("%w: %s", ErrSinkUnavailable, cfg.OutputPath)
	}

	return &FileSink{
		writer: writer,
		path:   cfg.OutputPath,
		width:  props.Width,
		height: props.Height,
	}, nil
}

func (s *FileSink) Write(m gocv.Mat) error {
	if m.Cols() != s.width || m.Rows() != s.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, m.Cols(), m.Rows(), s.width, s.height)
	}
	if err := s.writer.Write(m); err != nil {
		return fmt.Errorf("write frame %d to %s: %w", s.frames, s.path, err)
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (s *FileSink) Frames() int {
	return s.frames
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Close() error {
	return s.writer.Close()
}
