// Package loader fetches a JSON dataset once per session and shares the
// outcome with every caller.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	appLog "festdir/internal/log"
	"festdir/internal/metrics"
)

// DefaultTimeout bounds a single dataset fetch.
const DefaultTimeout = 15 * time.Second

// ErrEmptySource is returned when a Loader has no source configured.
var ErrEmptySource = errors.New("loader: source is empty")

// StatusError reports a non-2xx response from the dataset URL.
type StatusError struct {
	Dataset    string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load %s data (%d)", e.Dataset, e.StatusCode)
}

// Loader fetches one dataset of type T. The first Load performs the fetch;
// concurrent callers share that in-flight request and later callers receive
// the stored result, error included. Nothing is ever retried or invalidated:
// to re-read the source, create a new Loader.
type Loader[T any] struct {
	name   string
	source string
	client *http.Client

	group singleflight.Group

	mu   sync.Mutex
	done bool
	data *T
	err  error
}

// New creates a Loader for source, which is either an http(s) URL or a local
// file path. name labels logs and metrics ("festivals", "venues").
func New[T any](name, source string) *Loader[T] {
	return &Loader[T]{
		name:   name,
		source: source,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithClient replaces the HTTP client used for URL sources.
func (l *Loader[T]) WithClient(c *http.Client) *Loader[T] {
	if c != nil {
		l.client = c
	}
	return l
}

// Source returns the configured source.
func (l *Loader[T]) Source() string {
	return l.source
}

// Load returns the dataset, fetching it on first use.
func (l *Loader[T]) Load(ctx context.Context) (*T, error) {
	if data, err, ok := l.result(); ok {
		return data, err
	}

	v, err, _ := l.group.Do(l.name, func() (any, error) {
		if data, err, ok := l.result(); ok {
			return data, err
		}

		// The fetch outlives any one caller; the client timeout bounds it.
		data, err := l.fetch(context.WithoutCancel(ctx))

		l.mu.Lock()
		l.done, l.data, l.err = true, data, err
		l.mu.Unlock()

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.DatasetLoads.WithLabelValues(l.name, outcome).Inc()
		return data, err
	})

	data, _ := v.(*T)
	return data, err
}

// Loaded reports whether the fetch has completed (successfully or not).
func (l *Loader[T]) Loaded() bool {
	_, _, ok := l.result()
	return ok
}

func (l *Loader[T]) result() (*T, error, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data, l.err, l.done
}

func (l *Loader[T]) fetch(ctx context.Context) (*T, error) {
	if l.source == "" {
		return nil, ErrEmptySource
	}

	body, err := l.read(ctx)
	if err != nil {
		appLog.Error("dataset fetch failed", err, "dataset", l.name, "source", redactSource(l.source))
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		err = fmt.Errorf("loader: decode %s data: %w", l.name, err)
		appLog.Error("dataset decode failed", err, "dataset", l.name, "source", redactSource(l.source))
		return nil, err
	}

	appLog.Info("dataset loaded", "dataset", l.name, "source", redactSource(l.source), "bytes", len(body))
	return &out, nil
}

func (l *Loader[T]) read(ctx context.Context) ([]byte, error) {
	if !isHTTP(l.source) {
		return os.ReadFile(strings.TrimPrefix(l.source, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	appLog.Debug("dataset fetch start", "dataset", l.name, "source", redactSource(l.source))

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Dataset: l.name, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

func isHTTP(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// redactSource drops query strings from URLs before logging.
func redactSource(source string) string {
	if i := strings.IndexByte(source, '?'); i >= 0 && isHTTP(source) {
		return source[:i] + "?...(redacted)"
	}
	return source
}
