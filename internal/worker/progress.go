package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress tracks and prints tile rendering progress on a single line.
type Progress struct {
	startTime time.Time
	output    io.Writer
	label     string
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker that reports to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		label:     "tiles",
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// WithLabel sets the unit printed after the counters, e.g. "@2x tiles".
func (p *Progress) WithLabel(label string) *Progress {
	p.mu.Lock()
	p.label = label
	p.mu.Unlock()
	return p
}

// Update records progress.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Print writes the current progress line.
func (p *Progress) Print() {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	label := p.label
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		eta = time.Duration(float64(total-completed) / rate * float64(time.Second))
	}

	line := fmt.Sprintf("\r[%s] %d/%d %s", bar(completed, total), completed, total, label)
	if failed > 0 {
		line += fmt.Sprintf(" (%d failed)", failed)
	}
	line += fmt.Sprintf(" - %.1f/sec", rate)
	if completed < total && eta > 0 {
		line += " - ETA: " + formatDuration(eta)
	}
	if completed >= total {
		line += " - Done in " + formatDuration(elapsed)
	}

	// Pad to clear the previous line.
	fmt.Fprint(p.output, line+"          ")
}

// Done prints the final line and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the finished run.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	label := p.label
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var rate float64
	if elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}
	return fmt.Sprintf("Rendered %d/%d %s (%d failed) in %s (%.1f/sec)",
		completed-failed, total, label, failed, formatDuration(elapsed), rate)
}

func bar(completed, total int) string {
	filled := 0
	if total > 0 {
		filled = completed * barWidth / total
	}
	filled = max(0, min(filled, barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
