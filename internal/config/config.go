package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/torentino/torentino/internal/utils"
)

// Config carries everything the process needs, resolved from flags and
// environment variables. Flags win over env vars, env vars over defaults.
type Config struct {
	TorrentPath string
	SourceDir   string
	SaveDir     string
	PortStart   int
	PortEnd     int

	NoPeersTimeout time.Duration
	TickInterval   time.Duration

	Verbose bool
	LogFile string

	DownloadLimit int64
	UploadLimit   int64

	TelegramToken  string
	TelegramChatID string
}

// Load resolves the configuration from args and the environment. A .env
// file in the working directory is honored when present.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("torentino", flag.ContinueOnError)
	var (
		torrentPath = fs.String("torrent", getEnv("TORRENT_PATH", ""), "explicit .torrent file path (default: most recent in source dir)")
		sourceDir   = fs.String("source-dir", getEnv("TORRENT_DIR", "."), "directory scanned for .torrent files")
		saveDir     = fs.String("save-dir", getEnv("SAVE_PATH", "/app/downloads"), "download destination directory")
		portStart   = fs.Int("port-start", getEnvInt("LISTEN_PORT_START", 6881), "first listen port")
		portEnd     = fs.Int("port-end", getEnvInt("LISTEN_PORT_END", 6891), "last listen port")
		noPeers     = fs.Int("no-peers-timeout", getEnvInt("NO_PEERS_TIMEOUT", 300), "seconds without peers before aborting")
		verbose     = fs.Bool("verbose", false, "enable debug-level logging")
		logFile     = fs.String("logfile", "", "log destination path (default: stderr)")
		limit       = fs.String("limit", "", "download rate limit, e.g. 2MB")
		uploadLimit = fs.String("upload-limit", "", "upload rate limit, e.g. 500KB")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	downloadLimit, err := utils.ParseBytes(*limit)
	if err != nil {
		return nil, fmt.Errorf("parsing limit: %w", err)
	}
	uploadLimitBytes, err := utils.ParseBytes(*uploadLimit)
	if err != nil {
		return nil, fmt.Errorf("parsing upload-limit: %w", err)
	}

	cfg := &Config{
		TorrentPath:    *torrentPath,
		SourceDir:      *sourceDir,
		SaveDir:        *saveDir,
		PortStart:      *portStart,
		PortEnd:        *portEnd,
		NoPeersTimeout: time.Duration(*noPeers) * time.Second,
		TickInterval:   time.Second,
		Verbose:        *verbose,
		LogFile:        *logFile,
		DownloadLimit:  downloadLimit,
		UploadLimit:    uploadLimitBytes,
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PortStart <= 0 || c.PortEnd > 65535 || c.PortStart > c.PortEnd {
		return fmt.Errorf("invalid listen port range %d-%d", c.PortStart, c.PortEnd)
	}
	if c.NoPeersTimeout <= 0 {
		return fmt.Errorf("no-peers-timeout must be positive, got %v", c.NoPeersTimeout)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
