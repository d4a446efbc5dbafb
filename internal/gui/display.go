// internal/gui/display.go
// Live views with parameter sliders on OpenCV highgui windows
package gui

import (
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"edge-video-processing/internal/algorithms"
)

// Display shows the input and output frames and hosts the parameter
// controls. All calls happen on the processing loop's thread.
type Display interface {
	// Show presents the (blurred) input and the thresholded output.
	Show(input, output gocv.Mat)

	// Sync copies the current control positions into params.
	Sync(params *algorithms.Params)

	// WaitKey polls for a key press for at most wait and returns the key
	// code, or -1 when nothing was pressed.
	WaitKey(wait time.Duration) int

	Close() error
}

type control struct {
	info     algorithms.ParameterInfo
	trackbar *gocv.Trackbar
}

// WindowDisplay is the highgui implementation of Display: one window per
// view, each carrying the sliders declared for it.
type WindowDisplay struct {
	windows  map[string]*gocv.Window
	controls []control
	logger   *logrus.Logger
}

// NewWindowDisplay opens the input and output windows and creates one
// slider per parameter, starting at the current value in params.
func NewWindowDisplay(params *algorithms.Params, logger *logrus.Logger) *WindowDisplay {
	d := &WindowDisplay{
		windows: make(map[string]*gocv.Window),
		logger:  logger,
	}

	for _, view := range []string{algorithms.ViewInput, algorithms.ViewOutput} {
		d.windows[view] = gocv.NewWindow(view)
	}

	for _, info := range algorithms.GetParameterInfo() {
		window, ok := d.windows[info.View]
		if !ok {
			logger.WithField("view", info.View).Warn("No window for parameter control")
			continue
		}

		tb := window.CreateTrackbar(info.Label, info.Max)
		tb.SetMin(info.Min)
		if v, err := params.Value(info.Name); err == nil {
			tb.SetPos(v)
		}
		d.controls = append(d.controls, control{info: info, trackbar: tb})

		logger.WithFields(logrus.Fields{
			"view":  info.View,
			"label": info.Label,
			"max":   info.Max,
		}).Debug("Trackbar created")
	}

	return d
}

func (d *WindowDisplay) Show(input, output gocv.Mat) {
	d.windows[algorithms.ViewInput].IMShow(input)
	d.windows[algorithms.ViewOutput].IMShow(output)
}

func (d *WindowDisplay) Sync(params *algorithms.Params) {
	for _, c := range d.controls {
		applyPosition(d.logger, params, c.info.Name, c.trackbar.GetPos())
	}
}

// applyPosition stores a slider position in params, logging changes.
func applyPosition(logger *logrus.Logger, params *algorithms.Params, name string, pos int) {
	old, err := params.Value(name)
	if err == nil && old == pos {
		return
	}
	if err := params.Set(name, pos); err != nil {
		logger.WithField("parameter", name).WithError(err).Warn("Slider has no matching parameter")
		return
	}
	logger.WithFields(logrus.Fields{
		"parameter": name,
		"from":      old,
		"to":        pos,
	}).Debug("Parameter changed")
}

func (d *WindowDisplay) WaitKey(wait time.Duration) int {
	return d.windows[algorithms.ViewInput].WaitKey(waitMillis(wait))
}

func (d *WindowDisplay) Close() error {
	var firstErr error
	for _, view := range []string{algorithms.ViewInput, algorithms.ViewOutput} {
		if err := d.windows[view].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// waitMillis converts a key wait into the highgui delay. A delay of 0
// would block until a key is pressed, so the result is at least 1.
func waitMillis(wait time.Duration) int {
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		return 1
	}
	return ms
}
