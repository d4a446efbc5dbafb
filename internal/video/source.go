// Frame sources backed by the OpenCV capture layer
package video

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"edge-video-processing/internal/config"
)

var (
	// ErrSourceUnavailable means the camera or file could not be opened.
	ErrSourceUnavailable = errors.New("can't find video source")
	// ErrNoFrame means the source opened but yielded no initial frame.
	ErrNoFrame = errors.New("can't read data from the video source")
)

// Properties are the values the source reports about itself. They are
// informational, apart from Width/Height which size the sink.
type Properties struct {
	Width  int
	Height int
	FPS    float64
}

// Source defines a stream of colour frames, such as a camera or a file.
type Source interface {
	// Read fills m with the next frame and reports whether one was available.
	Read(m *gocv.Mat) bool

	// Properties returns the reported frame size and rate.
	Properties() Properties

	// Close releases the capture device or file.
	Close() error
}

// CaptureSource wraps gocv.VideoCapture
type CaptureSource struct {
	capture *gocv.VideoCapture
	name    string
	props   Properties
}

// OpenSource opens the camera selected by cfg, or the input file if one
// was given.
func OpenSource(cfg config.Config, logger *logrus.Logger) (*CaptureSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)

	if cfg.UseCamera() {
		capture, err = gocv.VideoCaptureDevice(cfg.CameraIndex)
	} else {
		logger.WithField("input", cfg.InputPath).Info("Input file")
		capture, err = gocv.VideoCaptureFile(cfg.InputPath)
	}
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, cfg.SourceName(), err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, cfg.SourceName())
	}

	src := &CaptureSource{
		capture: capture,
		name:    cfg.SourceName(),
		props: Properties{
			Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
			FPS:    capture.Get(gocv.VideoCaptureFPS),
		},
	}

	logOpened(logger, cfg, src.name, src.props)
	return src, nil
}

// logOpened reports the source geometry, then the fixed output rate that
// any sink of this run will use.
func logOpened(logger *logrus.Logger, cfg config.Config, name string, props Properties) {
	logger.WithFields(logrus.Fields{
		"source": name,
		"width":  props.Width,
		"height": props.Height,
		"fps":    int(props.FPS),
	}).Info("Input video opened")

	logger.WithFields(logrus.Fields{
		"source_fps": int(props.FPS),
		"output_fps": cfg.OutputFPS,
		"codec":      cfg.Codec,
	}).Info("Output codec is sensitive to frame rate, forcing fixed output rate")
}

func (s *CaptureSource) Read(m *gocv.Mat) bool {
	if ok := s.capture.Read(m); !ok {
		return false
	}
	return !m.Empty()
}

func (s *CaptureSource) Properties() Properties {
	return s.props
}

func (s *CaptureSource) Name() string {
	return s.name
}

func (s *CaptureSource) Close() error {
	return s.capture.Close()
}
