package filter

import "math"

// gate is the correlation stage: when the trigger joint's frame-to-frame
// change exceeds the current threshold, the victim joint is pulled toward its
// last accepted value instead of following the raw command.
type gate struct {
	strength  float64         // suppression strength in [0,1], 1 = full freeze
	threshold thresholdSource // fixed or adaptive

	prevTrigger float64
	last        float64 // last accepted victim value
	primed      bool

	current float64 // threshold used on the most recent tick, for telemetry
}

func newGate(strength float64, threshold thresholdSource, initial float64) *gate {
	return &gate{strength: strength, threshold: threshold, current: initial}
}

// apply processes one tick. raw is the victim value after the upstream
// stages. Returns the corrected victim value and whether the gate fired.
func (g *gate) apply(trigger, raw float64) (float64, bool) {
	if !g.primed {
		g.prevTrigger = trigger
		g.last = raw
		g.primed = true
		return raw, false
	}

	delta := math.Abs(trigger - g.prevTrigger)
	g.prevTrigger = trigger
	g.current = g.threshold.update(delta)

	if delta > g.current {
		corrected := g.last + (1-g.strength)*(raw-g.last)
		g.last = corrected
		return corrected, true
	}
	g.last = raw
	return raw, false
}

// lastAccepted returns the victim value the gate last committed.
func (g *gate) lastAccepted() (float64, bool) {
	return g.last, g.primed
}

// setLast overrides the committed victim value; used by the lock stage when
// it freezes the victim after the gate has run.
func (g *gate) setLast(v float64) { g.last = v }

// currentThreshold returns the threshold used on the most recent tick.
func (g *gate) currentThreshold() float64 { return g.current }
