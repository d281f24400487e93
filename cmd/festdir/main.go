package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"festdir/internal/calendar"
	"festdir/internal/capture"
	"festdir/internal/config"
	"festdir/internal/ics"
	"festdir/internal/listing"
	"festdir/internal/loader"
	appLog "festdir/internal/log"
	"festdir/internal/model"
	"festdir/internal/venues"
	"festdir/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	debug      bool
	once       bool
	exportDir  string
	snapshot   string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.SetOutput(os.Stderr, conf.LogFormat)
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("festdir starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"festivals_url", conf.FestivalsURL,
		"venues_url", conf.VenuesURL,
		"once", flags.once,
		"export", flags.exportDir,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case flags.once:
		err = runOnce(ctx, conf, flags.exportDir)
	case flags.snapshot != "":
		err = runSnapshot(ctx, conf, flags)
	default:
		err = runServer(ctx, conf, flags.debug)
	}
	if err != nil {
		appLog.Error("festdir failed", err)
		os.Exit(1)
	}
	appLog.Info("festdir exiting")
}

// runOnce loads the datasets once, logs a summary and optionally writes one
// .ics file per season with final dates.
func runOnce(ctx context.Context, conf *config.Config, exportDir string) error {
	data, err := loader.New[model.Dataset]("festivals", conf.FestivalsURL).Load(ctx)
	if err != nil {
		return err
	}

	instances := listing.SummarizeInstances(listing.ExpandInstances(data))
	idx := calendar.PrepareCalendarData(instances)

	exact := 0
	for _, inst := range instances {
		if inst.HasExactDates {
			exact++
		}
	}
	appLog.Info("festival dataset loaded",
		"festivals", len(listing.BuildFestivalMap(data)),
		"instances", len(instances),
		"exact_dates", exact,
		"years", fmt.Sprint(listing.Years(instances)),
		"months", len(idx.Months),
		"truncated", len(idx.Truncated),
	)

	if conf.VenuesURL != "" {
		vdata, err := loader.New[model.VenueDataset]("venues", conf.VenuesURL).Load(ctx)
		if err != nil {
			// The venue directory is optional in one-shot mode.
			appLog.Error("venue dataset unavailable", err, "source", conf.VenuesURL)
		} else {
			listings := venues.Expand(vdata)
			appLog.Info("venue dataset loaded",
				"venues", len(listings),
				"cities", len(venues.Cities(listings)),
				"types", len(venues.Types(listings)),
			)
		}
	}

	if exportDir == "" {
		return nil
	}
	_, err = ics.NewExporter(conf.CalendarDomain).WriteAll(exportDir, instances)
	return err
}

// runServer serves the directory and starts a new dataset session on every
// refresh tick.
func runServer(ctx context.Context, conf *config.Config, debug bool) error {
	srv := web.NewServer(conf, debug)

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, srv.Reload); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	return srv.Run(ctx)
}

// runSnapshot starts the server, captures the calendar page to a PNG and
// shuts down again.
func runSnapshot(ctx context.Context, conf *config.Config, flags flagConfig) error {
	opts, err := capture.OptionsFromConfig(conf, flags.snapshot)
	if err != nil {
		return err
	}

	srvCtx, stop := context.WithCancel(ctx)
	defer stop()

	srv := web.NewServer(conf, flags.debug)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(srvCtx) }()

	if err := waitHealthy(ctx, "http://"+conf.Listen+"/health", 10*time.Second); err != nil {
		return err
	}

	captureErr := capture.CalendarPNG(ctx, opts)
	stop()
	if err := <-errCh; err != nil {
		appLog.Error("HTTP server stopped with error", err)
	}
	return captureErr
}

// waitHealthy polls url until it answers 200 or timeout elapses.
func waitHealthy(ctx context.Context, url string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return errors.New("server did not become healthy in time")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/festdir/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&cfg.once, "once", false, "Load the datasets once, log a summary and exit")
	flag.StringVar(&cfg.exportDir, "export", "", "With --once, write .ics invites into this directory")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture the calendar page to this PNG path and exit")

	flag.Parse()

	return cfg
}
