package main

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    bool
		wantInput  string
		wantOutput string
		wantCamera bool
	}{
		{name: "no args uses camera", args: nil, wantCamera: true},
		{name: "input file", args: []string{"-input=vtest.avi"}, wantInput: "vtest.avi"},
		{name: "input and output", args: []string{"-input=vtest.avi", "-output=vtestprocessed.avi"}, wantInput: "vtest.avi", wantOutput: "vtestprocessed.avi"},
		{name: "camera to file", args: []string{"-output=camout.avi"}, wantOutput: "camout.avi", wantCamera: true},
		{name: "double dash", args: []string{"--input=vtest.avi"}, wantInput: "vtest.avi"},
		{name: "threshold out of range", args: []string{"-threshold=300"}, wantErr: true},
		{name: "negative blur", args: []string{"-blur=-1"}, wantErr: true},
		{name: "bad codec", args: []string{"-codec=MP4"}, wantErr: true},
		{name: "unknown flag", args: []string{"-fps=30"}, wantErr: true},
		{name: "stray argument", args: []string{"vtest.avi"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, err := parseFlags("inout", tt.args, &out)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, out.String(), "Examples:", "usage follows a rejected command line")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInput, cfg.InputPath)
			assert.Equal(t, tt.wantOutput, cfg.OutputPath)
			assert.Equal(t, tt.wantCamera, cfg.UseCamera())
			assert.Equal(t, 5, cfg.BlurRadius)
			assert.Equal(t, 125, cfg.Threshold)
		})
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	var out bytes.Buffer
	cfg, err := parseFlags("inout", []string{"-camera=2", "-blur=0", "-threshold=255", "-codec=MJPG", "-stats=run.db", "-debug"}, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.CameraIndex)
	assert.Equal(t, 0, cfg.BlurRadius)
	assert.Equal(t, 255, cfg.Threshold)
	assert.Equal(t, "MJPG", cfg.Codec)
	assert.Equal(t, "run.db", cfg.StatsPath)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "camera:2", cfg.SourceName())
}

func TestParseFlags_Help(t *testing.T) {
	for _, arg := range []string{"-h", "--help", "-help"} {
		t.Run(arg, func(t *testing.T) {
			var out bytes.Buffer
			_, err := parseFlags("inout", []string{arg}, &out)
			assert.True(t, errors.Is(err, flag.ErrHelp))
			assert.Contains(t, out.String(), "inout -input=vtest.avi -output=vtestprocessed.avi")
			assert.Contains(t, out.String(), "inout -output=camout.avi")
		})
	}
}

func TestRun_HelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	code := run("inout", []string{"-h"}, &out)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, out.String(), "OpenCV example of video input, processing, output")
	assert.Contains(t, out.String(), "Run with no command line args to use camera input")
}

func TestRun_InvalidFlags(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitUsage, run("inout", []string{"-threshold=-5"}, &out))
}

func TestRun_MissingInputFile(t *testing.T) {
	var out bytes.Buffer
	code := run("inout", []string{"-input=" + t.TempDir() + "/missing.avi"}, &out)
	assert.Equal(t, exitNoSource, code)
}

func TestInitLogger(t *testing.T) {
	var out bytes.Buffer

	logger := initLogger(false, &out)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	logger = initLogger(true, &out)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	text, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.False(t, text.ForceColors, "no colours when writing to a buffer")
}
