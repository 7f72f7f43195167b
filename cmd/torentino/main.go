package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/torentino/torentino/internal/config"
	"github.com/torentino/torentino/internal/controller"
	"github.com/torentino/torentino/internal/engine"
	"github.com/torentino/torentino/internal/job"
	"github.com/torentino/torentino/internal/logging"
	"github.com/torentino/torentino/internal/notify"
	"github.com/torentino/torentino/internal/progress"
	"github.com/torentino/torentino/internal/source"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return job.ExitFailed
	}
	if err := logging.Setup(cfg.Verbose, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening logfile: %v\n", err)
		return job.ExitFailed
	}

	slog.Info("starting torrent downloader",
		"torrent", cfg.TorrentPath,
		"source_dir", cfg.SourceDir,
		"save_dir", cfg.SaveDir,
		"ports", fmt.Sprintf("%d-%d", cfg.PortStart, cfg.PortEnd),
		"no_peers_timeout", cfg.NoPeersTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := engine.NewSession(engine.Config{
		SaveDir:       cfg.SaveDir,
		PortStart:     cfg.PortStart,
		PortEnd:       cfg.PortEnd,
		DownloadLimit: cfg.DownloadLimit,
		UploadLimit:   cfg.UploadLimit,
	})
	notifier := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
	if !notifier.Enabled() {
		slog.Debug("telegram credentials absent, notifications disabled")
	}

	j := job.New(cfg.SaveDir, cfg.PortStart, cfg.PortEnd, cfg.NoPeersTimeout)
	reporter := progress.NewPrinter(os.Stdout, cfg.SaveDir)
	sel := func() (string, error) {
		return source.Select(cfg.SourceDir, cfg.TorrentPath)
	}

	ctrl := controller.New(sel, sess, notifier, reporter, j, cfg.TickInterval)
	final := ctrl.Run(ctx)
	return job.ExitCode(final)
}
