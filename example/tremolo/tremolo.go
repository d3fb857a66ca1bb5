// Package tremolo is a minimal automation consumer: it does not implement
// a DSP leaf, it only shows how a per-block consumer pulls the currently
// governing automation value for one control and applies it as a gain
// multiplier. Wire a real DSP graph's gain stage to Apply in its own code.
package tremolo

import (
	"math"

	ags "github.com/gsequencer/gsequencer-sub021/src"
)

// Tremolo reads a "gain" automation curve once per block and applies it as
// an amplitude multiplier over a buffer of float64 samples.
type Tremolo struct {
	automation *ags.Automation
	lastValue  float64
}

// New builds a tremolo consumer bound to the given automation. The
// automation is expected to carry PortValueDouble or PortValueFloat
// points in [0, 1].
func New(automation *ags.Automation) *Tremolo {
	return &Tremolo{automation: automation, lastValue: 1.0}
}

// Apply scales buf in place by the automation value governing [blockStart,
// blockEnd). When no point lies in the block it uses the last point before
// blockStart (spec §4.6 get_value use_prev_on_failure semantics), and when
// there is none, or the port kind is neither double nor float, the last
// applied gain. The gain is clamped to [0, 1].
func (t *Tremolo) Apply(buf []float64, blockStart, blockEnd uint) {
	matchX, value, err := t.automation.GetValue(blockStart, blockEnd, true)

	gain := t.lastValue
	if err == nil && matchX != ags.NoMatch {
		switch value.Kind {
		case ags.PortValueDouble:
			gain = value.Double
		case ags.PortValueFloat:
			gain = float64(value.Float)
		}
	}
	gain = math.Max(0, math.Min(1, gain))
	t.lastValue = gain

	for i := range buf {
		buf[i] *= gain
	}
}
