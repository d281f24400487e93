package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"festdir/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// httptest servers keep idle keep-alive readers around briefly.
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

const festivalsJSON = `{"events":[{"name":"Dripping Springs Songwriters Festival","instances":[{"year":2025,"start_date":"2025-11-06","end_date":"2025-11-09"}]}]}`

func TestLoadFetchesOnce(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(festivalsJSON))
	}))
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	l := New[model.Dataset]("festivals", srv.URL+"/data/festivals.json").WithClient(srv.Client())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*model.Dataset, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background())
		}(i)
	}
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i])
	}
	require.Len(t, results[0].Events, 1)
	require.True(t, l.Loaded())

	again, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Same(t, results[0], again)
	require.EqualValues(t, 1, hits.Load())
}

func TestLoadNonSuccessIsStickyError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	l := New[model.Dataset]("festivals", srv.URL).WithClient(srv.Client())

	_, err := l.Load(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, "failed to load festivals data (404)", statusErr.Error())

	_, err2 := l.Load(context.Background())
	require.Equal(t, err, err2)
	require.EqualValues(t, 1, hits.Load())
}

func TestLoadCanceledCallerDoesNotPoisonResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(festivalsJSON))
	}))
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New[model.Dataset]("festivals", srv.URL).WithClient(srv.Client())
	data, err := l.Load(ctx)
	require.NoError(t, err)
	require.Len(t, data.Events, 1)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"venues":[{"name":"Gruene Hall","tags":["dance_hall"],"instances":[{"city":"New Braunfels"}]}]}`), 0o600))

	l := New[model.VenueDataset]("venues", path)
	data, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Gruene Hall", data.Venues[0].Name)

	fileURL := New[model.VenueDataset]("venues", "file://"+path)
	data, err = fileURL.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Venues, 1)
}

func TestLoadErrors(t *testing.T) {
	_, err := New[model.Dataset]("festivals", "").Load(context.Background())
	require.ErrorIs(t, err, ErrEmptySource)

	_, err = New[model.Dataset]("festivals", filepath.Join(t.TempDir(), "missing.json")).Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"events": [`), 0o600))
	_, err = New[model.Dataset]("festivals", bad).Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode festivals data")
}

func TestRedactSource(t *testing.T) {
	require.Equal(t, "https://example.com/data.json?...(redacted)", redactSource("https://example.com/data.json?token=abc"))
	require.Equal(t, "/srv/data.json", redactSource("/srv/data.json"))
}
