package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// EventType identifies a lifecycle event worth telling the operator about.
type EventType int

const (
	EventStarted EventType = iota
	EventProgress
	EventCompleted
	EventAborted
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	case EventAborted:
		return "aborted"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification. Delivery is fire-and-forget; nobody
// keeps history beyond the most recent terminal event guard in the caller.
type Event struct {
	Type    EventType
	Name    string
	Percent int
	Reason  string
	Err     error
}

// Text renders the plain-text message body sent to the push service.
func (e Event) Text() string {
	name := e.Name
	if name == "" {
		name = "torrent"
	}
	switch e.Type {
	case EventStarted:
		return fmt.Sprintf("⬇️ Download started: %s", name)
	case EventProgress:
		return fmt.Sprintf("⏳ %s: %d%%", name, e.Percent)
	case EventCompleted:
		return fmt.Sprintf("✅ Download completed: %s", name)
	case EventAborted:
		return fmt.Sprintf("🛑 Download aborted: %s (%s)", name, e.Reason)
	case EventFailed:
		return fmt.Sprintf("❌ Download failed: %s (%v)", name, e.Err)
	default:
		return name
	}
}

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 5 * time.Second

	// DefaultProgressInterval caps how often Progress events go out.
	DefaultProgressInterval = 5 * time.Minute
)

// Notifier delivers events to the Telegram sendMessage endpoint, best effort:
// failures are logged and swallowed, never surfaced to the caller. A Notifier
// without credentials is a no-op that performs no network I/O.
type Notifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

func New(token, chatID string) *Notifier {
	return &Notifier{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Every(DefaultProgressInterval), 1),
		timeout: defaultTimeout,
	}
}

// Enabled reports whether credentials are present.
func (n *Notifier) Enabled() bool {
	return n.token != "" && n.chatID != ""
}

// Notify attempts delivery with a bounded timeout. Progress events beyond
// the rate limit are silently dropped.
func (n *Notifier) Notify(ctx context.Context, ev Event) {
	if !n.Enabled() {
		return
	}
	if ev.Type == EventProgress && !n.limiter.Allow() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	form := url.Values{
		"chat_id": {n.chatID},
		"text":    {ev.Text()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		slog.Warn("notification request build failed", "event", ev.Type, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("notification delivery failed", "event", ev.Type, "err", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("notification rejected", "event", ev.Type, "status", resp.StatusCode)
		return
	}
	slog.Debug("notification delivered", "event", ev.Type)
}
