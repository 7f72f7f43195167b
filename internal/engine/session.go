package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"golang.org/x/time/rate"

	"github.com/torentino/torentino/internal/source"
)

// ErrEngineStart is returned when the engine cannot be configured or bound.
var ErrEngineStart = errors.New("engine start failed")

// Config carries the immutable engine settings for one session.
type Config struct {
	SaveDir       string
	PortStart     int
	PortEnd       int
	DownloadLimit int64 // bytes/sec, 0 = unlimited
	UploadLimit   int64 // bytes/sec, 0 = unlimited
}

// Session is a thin facade over an anacrolix torrent client driving a single
// transfer. Start, Poll and Close are called from the controller goroutine
// only.
type Session struct {
	cfg     Config
	client  *torrent.Client
	torrent *torrent.Torrent
	sampler rateSampler
	closed  bool
}

func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// Start configures the engine, binds a listen port from the configured
// range, and begins the transfer for the given .torrent file.
func (s *Session) Start(torrentPath string) error {
	mi, err := metainfo.LoadFromFile(torrentPath)
	if err != nil {
		return fmt.Errorf("%w: parsing %s: %v", source.ErrSourceUnreadable, torrentPath, err)
	}

	if err := os.MkdirAll(s.cfg.SaveDir, 0755); err != nil {
		return fmt.Errorf("%w: creating save dir %s: %v", ErrEngineStart, s.cfg.SaveDir, err)
	}

	cfg := torrent.NewDefaultClientConfig()
	cfg.DataDir = s.cfg.SaveDir
	cfg.Seed = false
	if s.cfg.UploadLimit > 0 {
		cfg.UploadRateLimiter = rate.NewLimiter(rate.Limit(s.cfg.UploadLimit), int(s.cfg.UploadLimit))
	}
	if s.cfg.DownloadLimit > 0 {
		cfg.DownloadRateLimiter = rate.NewLimiter(rate.Limit(s.cfg.DownloadLimit), int(s.cfg.DownloadLimit))
	}

	// The client binds a single listen port; walk the configured range until
	// one is free.
	var bindErr error
	for port := s.cfg.PortStart; port <= s.cfg.PortEnd; port++ {
		cfg.ListenPort = port
		client, err := torrent.NewClient(cfg)
		if err == nil {
			s.client = client
			slog.Debug("engine listening", "port", port)
			break
		}
		bindErr = err
	}
	if s.client == nil {
		return fmt.Errorf("%w: no usable listen port in %d-%d: %v",
			ErrEngineStart, s.cfg.PortStart, s.cfg.PortEnd, bindErr)
	}

	t, err := s.client.AddTorrent(mi)
	if err != nil {
		return fmt.Errorf("%w: adding torrent: %v", ErrEngineStart, err)
	}
	s.torrent = t

	// A .torrent file carries the info dict, so this does not wait on peers.
	go func() {
		<-t.GotInfo()
		t.DownloadAll()
	}()

	return nil
}

// Poll returns the current snapshot without blocking: info readiness is
// checked with a select, and rates come from counter deltas between polls.
func (s *Session) Poll() Status {
	if s.torrent == nil {
		return Status{}
	}

	st := Status{}
	select {
	case <-s.torrent.Closed():
		st.Err = errors.New("torrent closed by engine")
		return st
	default:
	}

	stats := s.torrent.Stats()
	st.Peers = stats.ActivePeers
	st.Seeders = stats.ConnectedSeeders

	select {
	case <-s.torrent.GotInfo():
		st.InfoReady = true
	default:
		return st
	}

	info := s.torrent.Info()
	if info == nil {
		return st
	}
	st.Name = info.Name
	st.BytesTotal = info.TotalLength()
	st.BytesCompleted = s.torrent.BytesCompleted()
	if st.BytesTotal > 0 {
		st.Progress = float64(st.BytesCompleted) / float64(st.BytesTotal)
	}
	st.DownloadRate = s.sampler.sample(stats.BytesReadUsefulData.Int64(), time.Now())
	st.ETA = eta(st.BytesCompleted, st.BytesTotal, st.DownloadRate)
	return st
}

// Close releases engine resources. Idempotent, and safe when Start never
// ran or failed partway through.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.torrent != nil {
		s.torrent.Drop()
		s.torrent = nil
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}
