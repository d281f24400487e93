package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"festdir/internal/config"
	appLog "festdir/internal/log"
)

// ReadySelector marks the calendar page as fully rendered.
const ReadySelector = `[data-ready="true"]`

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/?month=2025-10".
	URL string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// OptionsFromConfig builds capture options for the page cfg.Snapshot.Page
// served on cfg.Listen. outputPath overrides cfg.Snapshot.Path when set.
func OptionsFromConfig(cfg *config.Config, outputPath string) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("capture: config is nil")
	}
	page, err := url.Parse(cfg.Snapshot.Page)
	if err != nil {
		return Options{}, fmt.Errorf("capture: invalid snapshot page: %w", err)
	}
	base := &url.URL{Scheme: "http", Host: cfg.Listen, Path: "/"}

	if outputPath == "" {
		outputPath = cfg.Snapshot.Path
	}
	return Options{
		URL:        base.ResolveReference(page).String(),
		OutputPath: outputPath,
		Width:      cfg.Snapshot.Width,
		Height:     cfg.Snapshot.Height,
		Timeout:    time.Duration(cfg.Snapshot.TimeoutSeconds) * time.Second,
	}, nil
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = config.DefaultSnapshotW
	}
	if o.Height <= 0 {
		o.Height = config.DefaultSnapshotH
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(config.DefaultSnapshotSecs) * time.Second
	}
	return nil
}

// CalendarPNG launches a headless Chromium instance via chromedp, navigates
// to opts.URL, waits until the page exposes data-ready="true" and writes a
// full-page PNG screenshot to opts.OutputPath.
func CalendarPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Let the final paint settle.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	started := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: failed to create output dir: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("calendar snapshot written",
		"url", opts.URL,
		"path", opts.OutputPath,
		"bytes", len(png),
		"elapsed", time.Since(started).String(),
	)
	return nil
}
