package download

import (
	"io"
	"time"

	units "github.com/docker/go-units"

	"github.com/danieljhkim/bigdata-wsl/internal/event"
)

// progressWriter reports byte counts to the sink at most once per interval.
type progressWriter struct {
	w     io.Writer
	name  string
	total int64
	sink  event.Sink
	every time.Duration

	written  int64
	lastSent time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)

	now := time.Now()
	if p.sink != nil && now.Sub(p.lastSent) >= p.every {
		p.lastSent = now
		if p.total > 0 {
			p.sink.Progressf(p.name, "%s / %s", units.HumanSize(float64(p.written)), units.HumanSize(float64(p.total)))
		} else {
			p.sink.Progressf(p.name, "%s", units.HumanSize(float64(p.written)))
		}
	}
	return n, err
}
