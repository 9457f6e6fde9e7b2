package driveclient

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const progressRenderPeriod = 150 * time.Millisecond

// progress — минимальный индикатор хода передачи, пишет в stderr одну
// перерисовываемую строку. Потокобезопасен: чанки уходят параллельно.
type progress struct {
	mu       sync.Mutex
	prefix   string
	total    int64
	current  int64
	last     time.Time
	finished bool
	out      io.Writer
}

func newProgress(prefix string, total int64) *progress {
	return &progress{
		prefix: prefix,
		total:  total,
		out:    os.Stderr,
	}
}

func (p *progress) Add(n int64) {
	if p == nil || n <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.current += n

	now := time.Now()
	if now.Sub(p.last) < progressRenderPeriod {
		return
	}
	p.last = now
	p.renderLocked("")
}

func (p *progress) Done() {
	p.complete(" done")
}

func (p *progress) Fail(err error) {
	p.complete(fmt.Sprintf(" failed: %v", err))
}

func (p *progress) complete(suffix string) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.renderLocked(suffix + "\n")
}

func (p *progress) renderLocked(suffix string) {
	if p.total > 0 {
		pct := int(float64(p.current) / float64(p.total) * 100)
		if pct > 100 {
			pct = 100
		}
		fmt.Fprintf(p.out, "\r%s %3d%% (%s/%s)%s",
			p.prefix, pct, humanBytes(p.current), humanBytes(p.total), suffix)
		return
	}
	fmt.Fprintf(p.out, "\r%s %s%s", p.prefix, humanBytes(p.current), suffix)
}

// progressReader учитывает прочитанные байты в индикаторе.
type progressReader struct {
	r io.Reader
	p *progress
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	pr.p.Add(int64(n))
	return n, err
}

func humanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
