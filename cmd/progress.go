package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// progressPrinter redraws a single status line while a scan runs. Updates
// arrive from worker goroutines; drawing happens on one goroutine.
type progressPrinter struct {
	out      io.Writer
	name     string
	started  time.Time
	mu       sync.Mutex
	total    int
	done     int
	updates  chan struct{}
	stop     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(out io.Writer, total int, name string) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		out:     out,
		name:    name,
		total:   total,
		updates: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	p.started = time.Now()
	go p.loop()
}

// Update records completed out of total and schedules a redraw.
func (p *progressPrinter) Update(completed, total int) {
	p.mu.Lock()
	p.done = completed
	if total > 0 {
		p.total = total
	}
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		<-p.exited
		fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 80))
		p.print()
		fmt.Fprintln(p.out)
	})
}

func (p *progressPrinter) loop() {
	defer close(p.exited)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.stop:
			return
		}
	}
}

func (p *progressPrinter) print() {
	fmt.Fprint(p.out, p.line())
}

func (p *progressPrinter) line() string {
	p.mu.Lock()
	completed, total := p.done, p.total
	p.mu.Unlock()

	if completed > total {
		total = completed
	}
	percent := float64(completed) / float64(total) * 100
	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(completed) / elapsed
	}
	return fmt.Sprintf("\r[%s] Progress: %d/%d (%.1f%%) %.0f/s", p.name, completed, total, percent, rate)
}
