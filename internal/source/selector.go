package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSourceNotFound is returned when no torrent artifact can be located.
	ErrSourceNotFound = errors.New("no torrent file found")
	// ErrSourceUnreadable is returned when the chosen artifact cannot be opened.
	ErrSourceUnreadable = errors.New("torrent file unreadable")
)

// Select picks exactly one .torrent artifact. An explicit override path wins;
// otherwise the most recently modified .torrent in dir is chosen, with mtime
// ties broken by the lexicographically greatest name so selection stays
// deterministic.
func Select(dir, override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrSourceNotFound, override, err)
		}
		if err := readable(override); err != nil {
			return "", err
		}
		return override, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: listing %s: %v", ErrSourceNotFound, dir, err)
	}

	var (
		best      string
		bestInfo  os.FileInfo
		candidate bool
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".torrent") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !candidate || newer(info, entry.Name(), bestInfo, best) {
			best = entry.Name()
			bestInfo = info
			candidate = true
		}
	}
	if !candidate {
		return "", fmt.Errorf("%w: no .torrent files in %s", ErrSourceNotFound, dir)
	}

	path := filepath.Join(dir, best)
	if err := readable(path); err != nil {
		return "", err
	}
	return path, nil
}

func newer(info os.FileInfo, name string, bestInfo os.FileInfo, bestName string) bool {
	if info.ModTime().After(bestInfo.ModTime()) {
		return true
	}
	if info.ModTime().Equal(bestInfo.ModTime()) {
		return name > bestName
	}
	return false
}

func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	f.Close()
	return nil
}
