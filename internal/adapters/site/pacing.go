package site

import (
	"math/rand/v2"
	"time"
)

// Pacer applies a uniformly random delay between min and max before outbound
// requests in the alert-scan and action phases, mimicking human pacing.
type Pacer struct {
	min   time.Duration
	max   time.Duration
	sleep func(time.Duration)
}

func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max, sleep: time.Sleep}
}

// Wait blocks for one randomized delay. A zero min/max pacer returns
// immediately, which is how tests disable pacing.
func (p *Pacer) Wait() {
	d := p.min
	if span := p.max - p.min; span > 0 {
		d += rand.N(span)
	}
	if d > 0 {
		p.sleep(d)
	}
}
