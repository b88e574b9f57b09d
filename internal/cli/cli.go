// Package cli holds the command-line plumbing shared by the demo commands:
// flag parsing, logging, the optional store and preview server, and opening
// the video source.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"

	"github.com/ayusman/framelab/internal/app"
	"github.com/ayusman/framelab/internal/capture"
	"github.com/ayusman/framelab/internal/server"
	"github.com/ayusman/framelab/internal/store"
	"github.com/ayusman/framelab/internal/track"
	"github.com/ayusman/framelab/internal/ui"
)

// NoSourceMessage is printed when neither a video file nor a camera opens.
const NoSourceMessage = "No video file specified or camera connected."

// Options are the parsed command-line settings.
type Options struct {
	Video    string
	Camera   int
	HTTPAddr string
	DBPath   string
	NoStore  bool
	CamShift bool
}

// Command describes one demo binary.
type Command struct {
	Name          string
	Description   string
	DefaultCamera int
	// Tracking enables the --camshift flag.
	Tracking bool

	// Run is a demo loop method expression such as (*app.App).RunDifference.
	Run func(a *app.App, ctx context.Context, src capture.Source, disp ui.Display) error
}

// DefaultDBPath returns ~/.framelab/framelab.db, or a relative path when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "framelab.db"
	}
	return filepath.Join(home, ".framelab", "framelab.db")
}

// Parse parses args (including the program name) into Options.
func (c Command) Parse(args []string) (Options, error) {
	parser := argparse.NewParser(c.Name, c.Description)
	camera := parser.Int("c", "camera", &argparse.Options{Help: "Camera index used when no video file opens", Default: c.DefaultCamera})
	httpAddr := parser.String("", "http", &argparse.Options{Help: "Serve a live preview on this address (eg :8080)", Default: ""})
	dbPath := parser.String("", "db", &argparse.Options{Help: "Settings and session database", Default: DefaultDBPath()})
	noStore := parser.Flag("", "nostore", &argparse.Options{Help: "Do not load or save settings and sessions", Default: false})
	var camShift *bool
	if c.Tracking {
		camShift = parser.Flag("", "camshift", &argparse.Options{Help: "Track with CamShift instead of mean-shift", Default: false})
	}
	video := parser.StringPositional(&argparse.Options{Help: "Video file to read instead of the camera", Default: ""})

	if err := parser.Parse(args); err != nil {
		return Options{}, errors.New(parser.Usage(err))
	}

	opts := Options{
		Video:    *video,
		Camera:   *camera,
		HTTPAddr: *httpAddr,
		DBPath:   *dbPath,
		NoStore:  *noStore,
	}
	if camShift != nil {
		opts.CamShift = *camShift
	}
	return opts, nil
}

// Main runs the command and returns the process exit code.
func (c Command) Main(args []string) int {
	opts, err := c.Parse(args)
	if err != nil {
		fmt.Print(err)
		return 2
	}

	src, err := capture.Open(opts.Video, opts.Camera)
	if err != nil {
		fmt.Println(NoSourceMessage)
		return 1
	}
	defer src.Close()

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.Infof("Reading from %v", src.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.Config{Log: logger}
	if opts.CamShift {
		cfg.TrackMode = track.CamShift
	}

	if !opts.NoStore {
		st, err := store.New(opts.DBPath)
		if err != nil {
			logger.Warnf("Continuing without settings database: %v", err)
		} else {
			defer st.Close()
			logger.Infof("Using settings database %v", st.Path())
			cfg.Store = st
		}
	}

	if opts.HTTPAddr != "" {
		hub := server.NewHub(logger)
		cfg.Publisher = hub
		srv := server.New(server.Config{Log: logger, Hub: hub, Store: cfg.Store})
		go func() {
			if err := srv.Run(ctx, opts.HTTPAddr); err != nil {
				logger.Errorf("Preview server failed: %v", err)
			}
		}()
	}

	disp := ui.NewHighGUI()
	defer disp.Close()

	if err := c.Run(app.New(cfg), ctx, src, disp); err != nil {
		logger.Errorf("%v failed: %v", c.Name, err)
		return 1
	}
	return 0
}
