// Edge Video Processing - camera/file in, Scharr edges out
// Captures frames, blurs, extracts gradient magnitude and suppresses
// weak edges under a live-tunable threshold.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"edge-video-processing/internal/config"
	"edge-video-processing/internal/core"
	"edge-video-processing/internal/video"
)

const (
	AppName    = "Edge Video Processing"
	AppVersion = "1.0.0"
)

const banner = `OpenCV example of video input, processing, output
Command line arg -h to get help information`

const helpText = `Run with no command line args to use camera input
and output to windows on screen only.
Add command line arguments -input and/or -output
to input or output results to file.
Examples:
%[1]s -input=vtest.avi
%[1]s -input=vtest.avi -output=vtestprocessed.avi
%[1]s -output=camout.avi
`

// Exit codes
const (
	exitOK          = 0
	exitUsage       = 1
	exitNoSource    = -1
	exitProcessFail = 1
)

func main() {
	os.Exit(run(os.Args[0], os.Args[1:], os.Stdout))
}

func run(prog string, args []string, stdout io.Writer) int {
	fmt.Fprintln(stdout, banner)

	cfg, err := parseFlags(prog, args, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	logger := initLogger(cfg.Debug, stdout)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"source":     cfg.SourceName(),
	}).Info("Starting " + AppName)

	processor, err := core.NewProcessor(cfg, logger, core.DefaultBackends())
	if err != nil {
		logger.WithError(err).Error("Failed to build pipeline")
		return exitProcessFail
	}

	summary, err := processor.Run()
	switch {
	case errors.Is(err, video.ErrSourceUnavailable), errors.Is(err, video.ErrNoFrame):
		return exitNoSource
	case err != nil:
		logger.WithError(err).WithField("frames", summary.Frames).Error("Processing aborted")
		return exitProcessFail
	}

	logger.Info("Application shutting down gracefully")
	return exitOK
}

// parseFlags builds the run configuration from the command line. Help
// requests print the usage text and return flag.ErrHelp; invalid values
// print the problems and the usage text.
func parseFlags(prog string, args []string, out io.Writer) (config.Config, error) {
	cfg := config.DefaultConfig()

	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, helpText, prog)
		fmt.Fprintln(out, "Options:")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.InputPath, "input", "", "read frames from this video file instead of the camera")
	fs.StringVar(&cfg.OutputPath, "output", "", "write processed frames to this video file")
	fs.IntVar(&cfg.CameraIndex, "camera", cfg.CameraIndex, "capture device index used when no -input is given")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "four-character codec for the output file")
	fs.IntVar(&cfg.BlurRadius, "blur", cfg.BlurRadius, fmt.Sprintf("initial blur radius (0-%d)", config.MaxBlurRadius))
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, fmt.Sprintf("initial threshold level (0-%d)", config.MaxThreshold))
	fs.StringVar(&cfg.StatsPath, "stats", "", "record per-frame statistics into this SQLite database")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug mode with verbose logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(out, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(out, p)
		}
		fs.Usage()
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   isTerminal(out),
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
