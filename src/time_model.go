package ags

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimeModel holds bpm/delay_factor/segmentation and the derived per-tick
// delay[]/attack[] arrays plus the 256th-note sub-tick attack arrays (spec
// §3, §4.3). There is no teacher equivalent -- direwolf has no musical
// clock -- so this is built directly from the spec's closed-form
// arithmetic.
type TimeModel struct {
	Samplerate int
	BufferSize int
	BPM        float64
	DelayFactor float64 // segmentation numerator/denominator -> 1/denominator

	// delay[i] and attack[i] are recomputed by AdjustDelayAndAttack from
	// (bpm, delayFactor, samplerate, bufferSize). Sized 2*period, but only
	// the first `period` entries are meaningful; the extra headroom mirrors
	// the original's "delay[2*period]" over-allocation for lookahead.
	Delay  [2 * DefaultPeriod]float64
	Attack [2 * DefaultPeriod]int

	// Note256thDelay is absolute_delay/16: how many audio blocks correspond
	// to one 256th-note sub-tick.
	Note256thDelay float64

	// Note256thAttack[i][j] is the 32 x period 2-D array of 256th-note
	// sub-tick attack offsets (spec §9: represented contiguously for cache
	// locality rather than as 32 separate guint arrays).
	Note256thAttack [32][DefaultPeriod]int
}

// NewTimeModel builds a TimeModel at the default 120 BPM with
// delay_factor=1, recomputing derived arrays immediately.
func NewTimeModel(samplerate, bufferSize int) *TimeModel {
	tm := &TimeModel{
		Samplerate:  samplerate,
		BufferSize:  bufferSize,
		BPM:         120,
		DelayFactor: 1,
	}
	tm.AdjustDelayAndAttack()
	return tm
}

// AbsoluteDelay returns the number of audio blocks corresponding to one
// musical 16th-note subdivision (spec §3 invariant):
//
//	absolute_delay = 60 * (samplerate/buffer_size) / bpm * (1/16) * (1/delay_factor)
func (tm *TimeModel) AbsoluteDelay() float64 {
	if tm.BPM == 0 || tm.BufferSize == 0 || tm.DelayFactor == 0 {
		return 0
	}
	blocksPerSecond := float64(tm.Samplerate) / float64(tm.BufferSize)
	return 60.0 * blocksPerSecond / tm.BPM * (1.0 / SixteenthsPerBar) * (1.0 / tm.DelayFactor)
}

// AdjustDelayAndAttack recomputes delay[], attack[] and the 32xperiod
// 256th-note attack arrays from the current (bpm, delay_factor, samplerate,
// buffer_size). It is idempotent when none of those change (spec §8). It
// must leave note_256th_delay = absolute_delay/16 (spec §4.3).
func (tm *TimeModel) AdjustDelayAndAttack() {
	absDelay := tm.AbsoluteDelay()
	tm.Note256thDelay = absDelay / SixteenthsPerBar

	// delay[i] distributes the (possibly fractional) absolute_delay across
	// `period` slots so that over one full period the cumulative delay is
	// period*absDelay, matching AGS's running-remainder scheduling (the
	// fractional part carried in delay_counter rolls over tick to tick).
	for i := 0; i < DefaultPeriod; i++ {
		tm.Delay[i] = absDelay
		tm.Delay[i+DefaultPeriod] = absDelay
	}

	// attack[i] is the sample-accurate offset within the block at which the
	// note_offset advance for slot i is deemed to occur. With a constant
	// absolute_delay the attack offset is the fractional remainder of i*absDelay
	// translated into buffer-size units, matching the "256th offset" grid.
	for i := 0; i < DefaultPeriod; i++ {
		frac := float64(i)*absDelay - math.Floor(float64(i)*absDelay)
		attack := int(frac * float64(tm.BufferSize))
		tm.Attack[i] = attack
		tm.Attack[i+DefaultPeriod] = attack
	}

	if tm.Note256thDelay <= 0 {
		return
	}

	// note_256th_attack[pulse][tick] walks the sub-tick grid within a 16th
	// pulse, one row per possible 16th-pulse alignment (spec §9: one
	// contiguous 2-D array instead of 32 period-sized guint arrays).
	for pulse := 0; pulse < 32; pulse++ {
		for tick := 0; tick < DefaultPeriod; tick++ {
			base := tm.Attack[tick]
			sub := int(float64(pulse) * tm.Note256thDelay * float64(tm.BufferSize) / SixteenthsPerBar)
			tm.Note256thAttack[pulse][tick] = base + sub
		}
	}
}

// SetBPM sets the tempo and recomputes derived arrays.
func (tm *TimeModel) SetBPM(bpm float64) {
	tm.BPM = bpm
	tm.AdjustDelayAndAttack()
}

// SetDelayFactor sets the segmentation-derived factor and recomputes.
func (tm *TimeModel) SetDelayFactor(f float64) {
	tm.DelayFactor = f
	tm.AdjustDelayAndAttack()
}

// SetSamplerate updates the samplerate and recomputes.
func (tm *TimeModel) SetSamplerate(rate int) {
	tm.Samplerate = rate
	tm.AdjustDelayAndAttack()
}

// SetBufferSize updates the buffer size and recomputes.
func (tm *TimeModel) SetBufferSize(size int) {
	tm.BufferSize = size
	tm.AdjustDelayAndAttack()
}

// ParseSegmentation parses a "numerator/denominator" string into a
// delay_factor per spec §4.3: delay_factor := (1/numerator) x
// (numerator/denominator) = 1/denominator. Invalid strings return an error
// and leave the factor unchanged (caller decides whether to apply it).
func ParseSegmentation(s string) (float64, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("segmentation %q is not numerator/denominator", s)}
	}

	numerator, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || numerator == 0 {
		return 0, &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("segmentation %q has an invalid numerator", s)}
	}

	denominator, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || denominator == 0 {
		return 0, &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("segmentation %q has an invalid denominator", s)}
	}

	return 1.0 / float64(denominator), nil
}
