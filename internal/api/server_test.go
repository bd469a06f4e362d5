package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanchriswhite/deskinspect/internal/snapshot"
	"github.com/bryanchriswhite/deskinspect/internal/state"
	"github.com/bryanchriswhite/deskinspect/internal/window"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []snapshot.Options
	active  int
	overlap bool
}

func (f *fakeRunner) Run(ctx context.Context, opts snapshot.Options) *snapshot.Result {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	return &snapshot.Result{
		Timestamp:        "2024-01-01T00:00:00Z",
		DesktopSize:      [2]uint32{1920, 1080},
		Windows:          []snapshot.WindowRecord{},
		ChangesSinceLast: []string{},
	}
}

func (f *fakeRunner) recorded() []snapshot.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]snapshot.Options(nil), f.calls...)
}

func (f *fakeRunner) overlapped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlap
}

type fakeWindows []window.Window

func (f fakeWindows) ListWindows(ctx context.Context) []window.Window { return f }

type fakeStore struct {
	st       state.State
	resetErr error
	resets   int
}

func (f *fakeStore) Load() state.State { return f.st }

func (f *fakeStore) Reset() error {
	f.resets++
	return f.resetErr
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeRunner, *fakeStore) {
	t.Helper()
	runner := &fakeRunner{}
	store := &fakeStore{st: state.State{Windows: map[string]string{"0x01": "abc"}}}
	windows := fakeWindows{{ID: "0x01", Title: "Terminal", Geometry: window.Geometry{W: 800, H: 600}}}

	ts := httptest.NewServer(NewServer(runner, windows, store).Handler())
	t.Cleanup(ts.Close)
	return ts, runner, store
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSnapshot(t *testing.T) {
	ts, runner, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/snapshot?changes_only=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result snapshot.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, [2]uint32{1920, 1080}, result.DesktopSize)
	assert.Equal(t, []snapshot.Options{{ChangesOnly: true}}, runner.recorded())
}

func TestSnapshotRejectsBadFlag(t *testing.T) {
	ts, runner, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/snapshot?changes_only=sometimes")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, runner.recorded())
}

func TestConcurrentSnapshotsAreSerialized(t *testing.T) {
	ts, runner, _ := newTestServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(ts.URL + "/api/snapshot")
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, runner.recorded(), 4)
	assert.False(t, runner.overlapped())
}

func TestWindows(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/windows")
	require.NoError(t, err)
	defer resp.Body.Close()

	var windows []window.Window
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&windows))
	require.Len(t, windows, 1)
	assert.Equal(t, "Terminal", windows[0].Title)
}

func TestState(t *testing.T) {
	ts, _, store := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	var st state.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, "abc", st.Windows["0x01"])

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/state", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, store.resets)

	store.resetErr = errors.Wrap(state.ErrPersistence, "read-only filesystem")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSnapshotStream(t *testing.T) {
	ts, runner, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/snapshot/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, changesOnly := range []bool{false, true} {
		require.NoError(t, conn.WriteJSON(StreamRequest{ChangesOnly: changesOnly}))

		var result snapshot.Result
		require.NoError(t, conn.ReadJSON(&result))
		assert.Equal(t, "2024-01-01T00:00:00Z", result.Timestamp)
	}

	assert.Equal(t, []snapshot.Options{{ChangesOnly: false}, {ChangesOnly: true}}, runner.recorded())
}
