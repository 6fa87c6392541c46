package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/bowl-monitor/internal/logic"
)

func newTelegramServer(t *testing.T, sent *[]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Bowl","username":"bowl_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "4242", r.PostForm.Get("chat_id"))
			*sent = append(*sent, r.PostForm.Get("text"))
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":4242,"type":"private"},"text":"ok"}}`))
		default:
			w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestTelegramNotifierSendsMessage(t *testing.T) {
	var sent []string
	ts := newTelegramServer(t, &sent)

	n := NewTelegramNotifier("123:abc", 4242, time.Second)
	n.endpoint = ts.URL + "/bot%s/%s"

	require.NoError(t, n.Notify(context.Background(), testAlert(logic.NotifyFirstAlert)))
	require.Len(t, sent, 1)
	assert.Equal(t, "Alert: kitchen bowl is empty (3 dry checks in a row).", sent[0])
}

func TestTelegramNotifierBadToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer ts.Close()

	n := NewTelegramNotifier("bad", 1, time.Second)
	n.endpoint = ts.URL + "/bot%s/%s"

	err := n.Notify(context.Background(), testAlert(logic.NotifyReminder))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create bot")
}

func TestTelegramNotifierCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewTelegramNotifier("123:abc", 1, time.Second).Notify(ctx, testAlert(logic.NotifyFirstAlert))
	assert.ErrorIs(t, err, context.Canceled)
}

// hangingServer never answers until the client goes away or the test ends.
func hangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})
	return ts
}

func TestTelegramNotifierHonoursContextDeadline(t *testing.T) {
	ts := hangingServer(t)
	n := NewTelegramNotifier("123:abc", 1, time.Minute)
	n.endpoint = ts.URL + "/bot%s/%s"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := n.Notify(ctx, testAlert(logic.NotifyFirstAlert))
	require.Error(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestTelegramNotifierClientTimeout(t *testing.T) {
	ts := hangingServer(t)
	n := NewTelegramNotifier("123:abc", 1, 200*time.Millisecond)
	n.endpoint = ts.URL + "/bot%s/%s"

	started := time.Now()
	err := n.Notify(context.Background(), testAlert(logic.NotifyFirstAlert))
	require.Error(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
}
