package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leelsey/recvd/pkg/admin"
	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/logging"
	"github.com/leelsey/recvd/pkg/receiver"
)

// startAdmin attaches an admin API to an already running receiver.
func startAdmin(t *testing.T, srv *receiver.Server) string {
	t.Helper()

	port := getFreePort()
	api := admin.NewAdminAPI(port,
		admin.WithStore(srv.Store()),
		admin.WithReceiver(srv),
		admin.WithLogger(logging.Nop()),
		admin.WithVersion("test"),
	)
	require.NoError(t, api.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = api.Stop(ctx)
	})

	time.Sleep(50 * time.Millisecond)

	return fmt.Sprintf("http://localhost:%d", port)
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

// Captures made against the receiver are immediately queryable over
// the admin API, filters included.
func TestAdminReflectsCaptures(t *testing.T) {
	srv, base := startReceiver(t, nil)
	adminBase := startAdmin(t, srv)

	for _, path := range []string{"/?q=hello", "/hook", "/hook"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	var list admin.EntryListResponse
	getJSON(t, adminBase+"/entries", &list)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 3, list.Count)
	require.Len(t, list.Entries, 3)
	// Newest first.
	assert.Equal(t, capture.KindNamed, list.Entries[0].Kind)
	assert.Equal(t, capture.KindRoot, list.Entries[2].Kind)

	var named admin.EntryListResponse
	getJSON(t, adminBase+"/entries?kind=named", &named)
	assert.Equal(t, 2, named.Total)

	var limited admin.EntryListResponse
	getJSON(t, adminBase+"/entries?limit=1", &limited)
	assert.Equal(t, 3, limited.Total)
	assert.Equal(t, 1, limited.Count)

	// Individual lookup round-trips through the entry ID.
	var entry capture.Entry
	resp := getJSON(t, adminBase+"/entries/"+list.Entries[0].ID, &entry)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, list.Entries[0].ID, entry.ID)

	missing, err := http.Get(adminBase + "/entries/01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

// The status endpoint reports the attached listener.
func TestAdminStatusShowsListener(t *testing.T) {
	srv, base := startReceiver(t, nil)
	adminBase := startAdmin(t, srv)

	resp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	resp.Body.Close()

	var status admin.StatusResponse
	getJSON(t, adminBase+"/status", &status)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, 1, status.EntryCount)
	assert.Equal(t, 1, status.WebVisibleCount)
	require.NotNil(t, status.Listener)
	assert.True(t, status.Listener.Running)
	assert.Equal(t, srv.Port(), status.Listener.Port)
}

// New captures show up on an open SSE stream.
func TestAdminStreamDeliversLiveCaptures(t *testing.T) {
	srv, base := startReceiver(t, nil)
	adminBase := startAdmin(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, adminBase+"/entries/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Capture after the stream is open so the subscriber sees it.
	go func() {
		time.Sleep(100 * time.Millisecond)
		r, gerr := http.Get(base + "/live-probe")
		if gerr == nil {
			r.Body.Close()
		}
	}()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if strings.Contains(data, "Connected") {
			continue
		}
		var entry capture.Entry
		require.NoError(t, json.Unmarshal([]byte(data), &entry))
		assert.Equal(t, "live-probe", entry.Label)
		assert.Equal(t, capture.KindNamed, entry.Kind)
		return
	}
	t.Fatalf("stream closed before a capture arrived: %v", scanner.Err())
}

// Receiver uptime and store survive across admin queries; stopping the
// receiver flips the listener status.
func TestAdminSeesReceiverStop(t *testing.T) {
	srv, _ := startReceiver(t, nil)
	adminBase := startAdmin(t, srv)

	require.NoError(t, srv.Stop(t.Context()))

	var status admin.StatusResponse
	getJSON(t, adminBase+"/status", &status)
	require.NotNil(t, status.Listener)
	assert.False(t, status.Listener.Running)
}
