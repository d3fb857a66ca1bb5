package ags

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTimeModelDefaultsTo120BPMAndUnitDelayFactor(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	assert.Equal(t, 120.0, tm.BPM)
	assert.Equal(t, 1.0, tm.DelayFactor)
	assert.Greater(t, tm.AbsoluteDelay(), 0.0)
}

func TestAbsoluteDelayIsZeroOnDegenerateInputs(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	tm.SetBPM(0)
	assert.Equal(t, 0.0, tm.AbsoluteDelay())

	tm2 := NewTimeModel(44100, 1024)
	tm2.SetDelayFactor(0)
	assert.Equal(t, 0.0, tm2.AbsoluteDelay())
}

func TestAdjustDelayAndAttackIsIdempotent(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	before := tm.Delay
	tm.AdjustDelayAndAttack()
	assert.Equal(t, before, tm.Delay)
}

func TestAdjustDelayAndAttackKeepsNote256thDelayAtOneSixteenthOfAbsoluteDelay(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bpm := rapid.Float64Range(20, 400).Draw(rt, "bpm")
		bufferSize := rapid.IntRange(1, 8192).Draw(rt, "bufferSize")
		samplerate := rapid.IntRange(MinSamplerate, MaxSamplerate).Draw(rt, "samplerate")

		tm := NewTimeModel(samplerate, bufferSize)
		tm.SetBPM(bpm)

		assert.InDelta(rt, tm.AbsoluteDelay()/SixteenthsPerBar, tm.Note256thDelay, 1e-9)
	})
}

func TestParseSegmentationIsOneOverDenominator(t *testing.T) {
	f, err := ParseSegmentation("4/16")
	require.NoError(t, err)
	assert.Equal(t, 1.0/16.0, f)

	f, err = ParseSegmentation("1/4")
	require.NoError(t, err)
	assert.Equal(t, 0.25, f)
}

func TestParseSegmentationRejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"", "4", "4/0", "a/4", "4/b", "4/4/4"} {
		_, err := ParseSegmentation(s)
		assert.Error(t, err, "expected error for %q", s)
		assert.True(t, IsKind(err, ParseError))
	}
}

func TestDelayCounterNeverReachesFloorOfDelay(t *testing.T) {
	tm := NewTimeModel(44100, 1)
	s := NewTickScheduler()

	delay := tm.Delay[0]
	for i := 0; i < 4096; i++ {
		s.Advance(tm)
		assert.Less(t, s.DelayCounter, math.Floor(delay), "delay_counter must roll over before reaching floor(delay)")
	}
}
