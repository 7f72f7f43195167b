package progress

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/torentino/torentino/internal/engine"
	"github.com/torentino/torentino/internal/job"
	"github.com/torentino/torentino/internal/utils"
)

// Printer renders a single in-place progress line, rewritten only when the
// integer percentage changes.
type Printer struct {
	w           io.Writer
	saveDir     string
	lastPercent int
	wroteLine   bool
}

func NewPrinter(w io.Writer, saveDir string) *Printer {
	return &Printer{w: w, saveDir: saveDir, lastPercent: -1}
}

// Update renders the current tick's status.
func (p *Printer) Update(st engine.Status) {
	if !st.InfoReady {
		return
	}
	percent := int(st.Progress * 100)
	if percent == p.lastPercent {
		return
	}
	p.lastPercent = percent

	fmt.Fprintf(p.w, "\rProgress: %d%% | Downloaded: %s/%s | Speed: %s/s | Peers: %d   ",
		percent,
		utils.HumanBytes(st.BytesCompleted),
		utils.HumanBytes(st.BytesTotal),
		utils.HumanBytes(st.DownloadRate),
		st.Peers,
	)
	p.wroteLine = true
}

// Finish terminates the progress line and, on completion, lists the
// downloaded files together with the total elapsed time.
func (p *Printer) Finish(state job.State, elapsed time.Duration) {
	if p.wroteLine {
		fmt.Fprintln(p.w)
	}
	if state != job.StateCompleted {
		return
	}

	slog.Info("download completed", "save_dir", p.saveDir, "elapsed", elapsed.Round(time.Second))
	fmt.Fprintf(p.w, "Files saved to %s:\n", p.saveDir)
	filepath.WalkDir(p.saveDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fmt.Fprintf(p.w, "- %s\n", path)
		return nil
	})
	fmt.Fprintf(p.w, "Total time: %.1fs\n", elapsed.Seconds())
}
