package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/bowl-monitor/internal/logic"
	"github.com/sweeney/bowl-monitor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{
		Device:           "kitchen",
		EmptyThreshold:   50,
		DebounceStreak:   2,
		ReminderPeriod:   2,
		SleepSeconds:     600,
		WindowIterations: 60,
		Notifiers:        []string{"mqtt"},
		HTTPAddr:         ":8080",
	})
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordCycle(status.Cycle{
		ID:           "abc",
		At:           time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC),
		Reading:      80,
		Record:       logic.CounterRecord{BootCount: 3, NoWaterCount: 3, HaveAlerted: true},
		State:        logic.StateEmptyAlerted,
		Phase:        logic.PhaseSleepArmed,
		Notification: logic.NotifyFirstAlert,
	})

	resp, body := get(t, ts.URL+"/index.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	assert.Equal(t, "EMPTY_ALERTED", sj.Status.State)
	assert.Equal(t, uint32(3), sj.Status.Counters.NoWater)
	assert.Equal(t, 1, sj.Status.AlertsSent)
	assert.Equal(t, []string{"mqtt"}, sj.Status.Config.Notifiers)
}

func TestJSONUnknownBeforeFirstWake(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	assert.Equal(t, "UNKNOWN", sj.Status.State)
	assert.Nil(t, sj.Status.LastCycle)
}

func TestHTMLEndpoints(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.OpenWindow(60)
	tr.RecordWindowSample(7, status.Reading{Time: time.Date(2026, 1, 1, 0, 0, 7, 0, time.UTC), Value: 12.5})

	for _, path := range []string{"/", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, ts.URL+path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
			assert.Contains(t, body, "Bowl Monitor: kitchen")
			assert.Contains(t, body, "7 / 60")
			assert.Contains(t, body, "12.5")
			assert.Contains(t, body, "UNKNOWN")
		})
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpenClose(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	srv := New("127.0.0.1:0", tr)

	require.NoError(t, srv.Open())
	addr := srv.Addr()
	require.NotNil(t, addr)
	assert.Error(t, srv.Open(), "second open should fail while running")

	resp, _ := get(t, fmt.Sprintf("http://%s/healthz", addr))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Close(context.Background()))
	assert.Nil(t, srv.Addr())
	assert.NoError(t, srv.Close(context.Background()), "closing twice is a no-op")

	_, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	assert.Error(t, err)

	// A closed window can be reopened.
	require.NoError(t, srv.Open())
	require.NoError(t, srv.Close(context.Background()))
}
