package logging

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide logger.
// With a logfile the output is JSON appended to that file; otherwise a text
// handler writes to stderr so the progress line on stdout stays clean.
func Setup(verbose bool, logFile string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		handler = slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
