package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testNotifier(t *testing.T, handler http.HandlerFunc) (*Notifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	n := New("test-token", "42")
	n.baseURL = srv.URL
	return n, srv
}

func TestNotifySendsMessage(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	n, _ := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotChat = r.PostFormValue("chat_id")
		gotText = r.PostFormValue("text")
		w.WriteHeader(http.StatusOK)
	})

	n.Notify(context.Background(), Event{Type: EventCompleted, Name: "ubuntu.iso"})

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want /bottest-token/sendMessage", gotPath)
	}
	if gotChat != "42" {
		t.Errorf("chat_id = %q, want 42", gotChat)
	}
	if !strings.Contains(gotText, "ubuntu.iso") {
		t.Errorf("text = %q, want torrent name in body", gotText)
	}
}

func TestNotifyWithoutCredentialsDoesNoIO(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	n := New("", "")
	n.baseURL = srv.URL
	n.Notify(context.Background(), Event{Type: EventCompleted})
	n.Notify(context.Background(), Event{Type: EventFailed})

	if n.Enabled() {
		t.Error("Enabled() = true without credentials")
	}
	if calls.Load() != 0 {
		t.Errorf("credential-less notifier performed %d requests, want 0", calls.Load())
	}
}

func TestNotifySwallowsServerErrors(t *testing.T) {
	t.Parallel()

	n, _ := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	// Must not panic or block; failure is logged and swallowed.
	n.Notify(context.Background(), Event{Type: EventAborted, Reason: "no peers"})
}

func TestProgressEventsRateLimited(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	n, _ := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	n.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	for i := 0; i < 5; i++ {
		n.Notify(context.Background(), Event{Type: EventProgress, Percent: i * 10})
	}
	if calls.Load() != 1 {
		t.Errorf("progress notifications = %d, want 1 (rate limited)", calls.Load())
	}

	// Terminal events are never rate limited.
	n.Notify(context.Background(), Event{Type: EventCompleted})
	if calls.Load() != 2 {
		t.Errorf("after terminal event: calls = %d, want 2", calls.Load())
	}
}

func TestEventText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Type: EventStarted, Name: "x"}, "started: x"},
		{Event{Type: EventProgress, Name: "x", Percent: 50}, "x: 50%"},
		{Event{Type: EventCompleted, Name: "x"}, "completed: x"},
		{Event{Type: EventAborted, Name: "x", Reason: "no peers"}, "no peers"},
	}
	for _, tt := range tests {
		if got := tt.ev.Text(); !strings.Contains(got, tt.want) {
			t.Errorf("Text(%v) = %q, want substring %q", tt.ev.Type, got, tt.want)
		}
	}
}
