package geocode

import "time"

// Pacer spaces out calls to a rate-limited upstream. Wait blocks until at
// least the configured interval has passed since the previous Wait; the
// first call returns immediately.
type Pacer struct {
	interval time.Duration
	last     time.Time

	// Injectable for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewPacer returns a pacer enforcing the given minimum interval between
// calls. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, sleep: time.Sleep, now: time.Now}
}

// Wait blocks until the interval since the previous Wait has elapsed.
func (p *Pacer) Wait() {
	if p.interval <= 0 {
		return
	}
	now := p.now()
	if !p.last.IsZero() {
		if remaining := p.interval - now.Sub(p.last); remaining > 0 {
			p.sleep(remaining)
			now = now.Add(remaining)
		}
	}
	p.last = now
}
