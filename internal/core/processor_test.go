package core

import (
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"edge-video-processing/internal/algorithms"
	"edge-video-processing/internal/config"
	"edge-video-processing/internal/gui"
	"edge-video-processing/internal/stats"
	"edge-video-processing/internal/video"
)

const (
	testWidth  = 32
	testHeight = 24
)

type fakeSource struct {
	frames int
	reads  int
	closed bool
}

func (s *fakeSource) Read(m *gocv.Mat) bool {
	if s.reads >= s.frames {
		return false
	}
	s.reads++
	colour := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(s.reads*10), 80, 200, 0), testHeight, testWidth, gocv.MatTypeCV8UC3)
	defer colour.Close()
	// a bright square gives every frame an edge
	gocv.Rectangle(&colour, image.Rect(8, 8, 16, 16), color.RGBA{R: 255, G: 255, B: 255}, -1)
	colour.CopyTo(m)
	return true
}

func (s *fakeSource) Properties() video.Properties {
	return video.Properties{Width: testWidth, Height: testHeight, FPS: 29.97}
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	writes   int
	failAt   int // 1-based write that fails, 0 never
	channels []int
	sizes    [][2]int
	closed   bool
}

func (s *fakeSink) Write(m gocv.Mat) error {
	s.writes++
	if s.failAt > 0 && s.writes == s.failAt {
		return errors.New("disk full")
	}
	s.channels = append(s.channels, m.Channels())
	s.sizes = append(s.sizes, [2]int{m.Cols(), m.Rows()})
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

type fakeDisplay struct {
	keys   []int // returned by successive WaitKey calls, -1 once exhausted
	shows  int
	waits  []time.Duration
	onSync func(iteration int, p *algorithms.Params)
	closed bool
}

func (d *fakeDisplay) Show(input, output gocv.Mat) {
	d.shows++
}

func (d *fakeDisplay) Sync(p *algorithms.Params) {
	if d.onSync != nil {
		d.onSync(d.shows, p)
	}
}

func (d *fakeDisplay) WaitKey(wait time.Duration) int {
	d.waits = append(d.waits, wait)
	i := len(d.waits) - 1
	if i < len(d.keys) {
		return d.keys[i]
	}
	return -1
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

type fakeRecorder struct {
	runs   []stats.RunInfo
	frames []stats.FrameRecord
	closed bool
}

func (r *fakeRecorder) BeginRun(info stats.RunInfo) error {
	r.runs = append(r.runs, info)
	return nil
}

func (r *fakeRecorder) RecordFrame(rec stats.FrameRecord) error {
	r.frames = append(r.frames, rec)
	return nil
}

func (r *fakeRecorder) Close() error {
	r.closed = true
	return nil
}

// harness wires fakes into a Processor and counts how each backend was used.
type harness struct {
	source       *fakeSource
	sourceErr    error
	sourceCfg    config.Config
	sink         *fakeSink
	sinkErr      error
	sinkOpens    int
	sinkProps    video.Properties
	display      *fakeDisplay
	displayOpens int
	recorder     *fakeRecorder
}

func newHarness(frames int) *harness {
	return &harness{
		source:   &fakeSource{frames: frames},
		sink:     &fakeSink{},
		display:  &fakeDisplay{},
		recorder: &fakeRecorder{},
	}
}

func (h *harness) backends() Backends {
	return Backends{
		OpenSource: func(cfg config.Config, logger *logrus.Logger) (video.Source, error) {
			h.sourceCfg = cfg
			if h.sourceErr != nil {
				return nil, h.sourceErr
			}
			return h.source, nil
		},
		OpenSink: func(cfg config.Config, props video.Properties, logger *logrus.Logger) (video.Sink, error) {
			h.sinkOpens++
			h.sinkProps = props
			if h.sinkErr != nil {
				return nil, h.sinkErr
			}
			return h.sink, nil
		},
		OpenDisplay: func(params *algorithms.Params, logger *logrus.Logger) gui.Display {
			h.displayOpens++
			return h.display
		},
		OpenRecorder: func(path string) (FrameRecorder, error) {
			return h.recorder, nil
		},
	}
}

func (h *harness) run(t *testing.T, cfg config.Config) (Summary, error) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	p, err := NewProcessor(cfg, logger, h.backends())
	require.NoError(t, err)
	return p.Run()
}

func TestRun_DisplayOnly(t *testing.T) {
	h := newHarness(5)
	cfg := config.DefaultConfig()
	cfg.InputPath = "clip.avi"

	summary, err := h.run(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Frames, "every readable frame is one iteration")
	assert.Equal(t, EndOfStream, summary.Reason)
	assert.False(t, summary.SinkActive)
	assert.Equal(t, 0, summary.SinkFrames)
	assert.Equal(t, 0, h.sinkOpens, "no sink without an output path")
	assert.Equal(t, 0, h.sink.writes)
	assert.Equal(t, 5, h.display.shows)
	assert.True(t, h.display.closed)
	assert.True(t, h.source.closed)
	for _, w := range h.display.waits {
		assert.Equal(t, 10*time.Millisecond, w)
	}
}

func TestRun_ExitKey(t *testing.T) {
	h := newHarness(50)
	h.display.keys = []int{-1, 'a', 27}

	summary, err := h.run(t, config.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Frames)
	assert.Equal(t, ExitKeyPressed, summary.Reason)
	assert.Equal(t, 3, h.source.reads)
}

func TestRun_ExitKeyWithModifierBits(t *testing.T) {
	h := newHarness(10)
	h.display.keys = []int{0x100000 | 27}

	summary, err := h.run(t, config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Frames)
	assert.Equal(t, ExitKeyPressed, summary.Reason)
}

func TestRun_WritesOutput(t *testing.T) {
	h := newHarness(4)
	cfg := config.DefaultConfig()
	cfg.InputPath = "clip.avi"
	cfg.OutputPath = "out.avi"

	summary, err := h.run(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, h.sinkOpens)
	assert.Equal(t, video.Properties{Width: testWidth, Height: testHeight, FPS: 29.97}, h.sinkProps)
	assert.Equal(t, 4, h.sink.writes)
	assert.Equal(t, 4, summary.SinkFrames)
	assert.True(t, summary.SinkActive)
	assert.True(t, h.sink.closed)
	for i := range h.sink.channels {
		assert.Equal(t, 1, h.sink.channels[i], "output frames are greyscale")
		assert.Equal(t, [2]int{testWidth, testHeight}, h.sink.sizes[i])
	}
}

func TestRun_SinkOpenFailureDegrades(t *testing.T) {
	h := newHarness(6)
	h.sinkErr = video.ErrSinkUnavailable
	cfg := config.DefaultConfig()
	cfg.OutputPath = "/nonexistent/out.avi"

	summary, err := h.run(t, cfg)
	require.NoError(t, err, "a failed sink never aborts the run")

	assert.Equal(t, 6, summary.Frames)
	assert.Equal(t, EndOfStream, summary.Reason)
	assert.False(t, summary.SinkActive)
	assert.Equal(t, 1, h.sinkOpens)
	assert.Equal(t, 0, h.sink.writes)
}

func TestRun_SinkWriteFailureDisablesSink(t *testing.T) {
	h := newHarness(5)
	h.sink.failAt = 2
	cfg := config.DefaultConfig()
	cfg.OutputPath = "out.avi"

	summary, err := h.run(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Frames)
	assert.Equal(t, 2, h.sink.writes, "no writes after the first failure")
	assert.Equal(t, 1, summary.SinkFrames)
	assert.False(t, summary.SinkActive)
	assert.True(t, h.sink.closed)
}

func TestRun_SourceUnavailable(t *testing.T) {
	h := newHarness(0)
	h.sourceErr = video.ErrSourceUnavailable
	cfg := config.DefaultConfig()
	cfg.InputPath = "missing.avi"
	cfg.OutputPath = "out.avi"

	summary, err := h.run(t, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrSourceUnavailable))
	assert.Equal(t, 0, summary.Frames)
	assert.Equal(t, 0, h.displayOpens, "no display before a source is acquired")
	assert.Equal(t, 0, h.sinkOpens)
}

func TestRun_NoInitialFrame(t *testing.T) {
	h := newHarness(0)

	summary, err := h.run(t, config.DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrNoFrame))
	assert.Equal(t, 0, summary.Frames)
	assert.Equal(t, 0, h.displayOpens)
	assert.True(t, h.source.closed)
}

func TestRun_RequestedSource(t *testing.T) {
	h := newHarness(1)
	_, err := h.run(t, config.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, h.sourceCfg.UseCamera())
	assert.Equal(t, 0, h.sourceCfg.CameraIndex)

	h = newHarness(1)
	cfg := config.DefaultConfig()
	cfg.InputPath = "vtest.avi"
	_, err = h.run(t, cfg)
	require.NoError(t, err)
	assert.False(t, h.sourceCfg.UseCamera())
	assert.Equal(t, "vtest.avi", h.sourceCfg.InputPath)
}

func TestRun_ParameterChangesApplyNextFrame(t *testing.T) {
	h := newHarness(3)
	h.display.onSync = func(iteration int, p *algorithms.Params) {
		if iteration == 1 {
			p.Threshold = 255
			p.BlurRadius = 0
		}
	}
	cfg := config.DefaultConfig()
	cfg.StatsPath = "stats.db"

	_, err := h.run(t, cfg)
	require.NoError(t, err)

	require.Len(t, h.recorder.frames, 3)
	assert.Equal(t, 125, h.recorder.frames[0].Threshold)
	assert.Equal(t, 5, h.recorder.frames[0].BlurRadius)
	for _, f := range h.recorder.frames[1:] {
		assert.Equal(t, 255, f.Threshold)
		assert.Equal(t, 0, f.BlurRadius)
		assert.Equal(t, f.Max, f.Effective, "full threshold level maps to the frame maximum")
	}
}

func TestRun_RecordsStatistics(t *testing.T) {
	h := newHarness(3)
	cfg := config.DefaultConfig()
	cfg.InputPath = "clip.avi"
	cfg.StatsPath = "stats.db"

	_, err := h.run(t, cfg)
	require.NoError(t, err)

	require.Len(t, h.recorder.runs, 1)
	assert.Equal(t, "clip.avi", h.recorder.runs[0].Source)
	assert.Equal(t, testWidth, h.recorder.runs[0].Width)

	require.Len(t, h.recorder.frames, 3)
	for i, f := range h.recorder.frames {
		assert.Equal(t, i+1, f.Index)
		assert.GreaterOrEqual(t, f.Effective, f.Min)
		assert.LessOrEqual(t, f.Effective, f.Max)
		assert.Contains(t, f.Metrics, "edge_density")
	}
	assert.True(t, h.recorder.closed)
}

func TestRun_NoStatisticsByDefault(t *testing.T) {
	h := newHarness(2)

	_, err := h.run(t, config.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, h.recorder.runs)
	assert.Empty(t, h.recorder.frames)
}

func TestExitReason_String(t *testing.T) {
	assert.Equal(t, "end of stream", EndOfStream.String())
	assert.Equal(t, "exit key", ExitKeyPressed.String())
	assert.Equal(t, "ExitReason(7)", ExitReason(7).String())
}
