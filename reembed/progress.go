package reembed

import (
	"fmt"
	"io"
	"time"
)

// progress prints a carriage-return status line every `every` chunks.
// It is driven from a single goroutine.
type progress struct {
	w        io.Writer
	total    int
	every    int
	done     int
	reported int
	started  time.Time
	now      func() time.Time
}

func newProgress(w io.Writer, total, every int, now func() time.Time) *progress {
	if every <= 0 {
		every = 1
	}
	return &progress{w: w, total: total, every: every, started: now(), now: now}
}

// Update records done chunks, capped at total.
func (p *progress) Update(done int) {
	p.done = min(done, p.total)
	if p.done-p.reported >= p.every {
		p.print()
		p.reported = p.done
	}
}

// Finish prints the final line, counting every chunk as done.
func (p *progress) Finish() {
	p.done = p.total
	p.print()
	fmt.Fprintln(p.w)
}

func (p *progress) Elapsed() time.Duration {
	return p.now().Sub(p.started)
}

func (p *progress) print() {
	var pct, rate float64
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	if secs := p.Elapsed().Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.w, "\rProgress: %d/%d (%.1f%%) - %.1f chunks/s", p.done, p.total, pct, rate)
}
