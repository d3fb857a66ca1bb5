package ags

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTickSchedulerStartsAtRest(t *testing.T) {
	s := NewTickScheduler()
	assert.Equal(t, 0, s.TicCounter)
	assert.Equal(t, 0.0, s.DelayCounter)
	assert.Equal(t, uint(0), s.NoteOffset)
}

func TestTicCounterCyclesModuloPeriod(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	s := NewTickScheduler()

	for i := 0; i < 10*DefaultPeriod; i++ {
		s.Advance(tm)
		assert.GreaterOrEqual(t, s.TicCounter, 0)
		assert.Less(t, s.TicCounter, DefaultPeriod)
	}
}

func TestNoteOffsetAbsoluteIsMonotonicNonDecreasing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bpm := rapid.Float64Range(20, 400).Draw(rt, "bpm")
		steps := rapid.IntRange(1, 2000).Draw(rt, "steps")

		tm := NewTimeModel(44100, 1024)
		tm.SetBPM(bpm)
		s := NewTickScheduler()

		last := s.NoteOffsetAbsolute
		for i := 0; i < steps; i++ {
			s.Advance(tm)
			assert.GreaterOrEqual(rt, s.NoteOffsetAbsolute, last)
			last = s.NoteOffsetAbsolute
		}
	})
}

func TestLoopWrapsNoteOffsetToLoopLeftAtLoopRight(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	tm.SetBPM(240) // shorten absolute_delay so bars advance quickly in the test.
	s := NewTickScheduler()
	s.SetLoop(2, 5, true)

	seenLoopLeft := false
	for i := 0; i < 20000 && s.NoteOffsetAbsolute < 50; i++ {
		barAdvanced := s.Advance(tm)
		if barAdvanced {
			assert.LessOrEqual(t, s.NoteOffset, uint(5))
			if s.NoteOffset == 2 {
				seenLoopLeft = true
			}
			assert.NotEqual(t, uint(5), s.NoteOffset, "note_offset must wrap at loop_right, never land on it")
		}
	}
	assert.True(t, seenLoopLeft, "expected the loop to wrap note_offset back to loop_left at least once")
}

func TestGetLoopReturnsWhatSetLoopStored(t *testing.T) {
	s := NewTickScheduler()
	s.SetLoop(3, 9, true)
	left, right, doLoop := s.GetLoop()
	assert.Equal(t, uint(3), left)
	assert.Equal(t, uint(9), right)
	assert.True(t, doLoop)
}

func TestLoopWrapAtBoundaryLandsOnLoopLeft(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	s := NewTickScheduler()
	s.NoteOffset = 3
	s.SetLoop(2, 4, true)

	// Park the scheduler one block short of the 16th boundary.
	s.DelayCounter = math.Floor(tm.Delay[s.TicCounter]) - 1
	absBefore := s.NoteOffsetAbsolute

	boundary := s.Advance(tm)
	assert.True(t, boundary)
	assert.Equal(t, uint(2), s.NoteOffset)
	assert.Equal(t, absBefore+1, s.NoteOffsetAbsolute)
	assert.Equal(t, uint(32), s.Note256thOffset)
}

func TestNoteOffsetSequenceUnderLoopIsLeftToRightMinusOne(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	tm.SetBPM(240)
	s := NewTickScheduler()
	s.NoteOffset = 2
	s.SetLoop(2, 5, true)

	var seen []uint
	for len(seen) < 9 {
		if s.Advance(tm) {
			seen = append(seen, s.NoteOffset)
		}
	}
	assert.Equal(t, []uint{3, 4, 2, 3, 4, 2, 3, 4, 2}, seen)
}

func TestNoteOffsetAbsoluteIncrementsByOnePerBoundary(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	s := NewTickScheduler()

	last := s.NoteOffsetAbsolute
	for i := 0; i < 500; i++ {
		if s.Advance(tm) {
			assert.Equal(t, last+1, s.NoteOffsetAbsolute)
		} else {
			assert.Equal(t, last, s.NoteOffsetAbsolute)
		}
		last = s.NoteOffsetAbsolute
	}
}

func TestNote256thOffsetTracksDelayCounterWithinSixteenth(t *testing.T) {
	tm := NewTimeModel(48000, 1024)
	tm.SetBPM(120)
	s := NewTickScheduler()

	for i := 0; i < 200; i++ {
		if !s.Advance(tm) {
			want := SixteenthsPerBar*s.NoteOffset + uint(math.Floor(s.DelayCounter*(1.0/tm.Note256thDelay)))
			assert.Equal(t, want, s.Note256thOffset)
		}
	}
}

func TestNote256thOffsetLastExtensionMatchesAttackWindow(t *testing.T) {
	// buffer_size=1024, samplerate=48000, bpm=120: note_256th_delay ~ 0.092.
	tm := NewTimeModel(48000, 1024)
	s := NewTickScheduler()

	require.Less(t, tm.Note256thDelay, 1.0)

	// Park one block short of the boundary and advance across it.
	s.DelayCounter = math.Floor(tm.Delay[s.TicCounter]) - 1
	lower, upper := s.GetNote256thAttack(tm)
	require.True(t, s.Advance(tm))

	wantExtension := uint(0)
	if upper > lower {
		wantExtension = uint(math.Floor(float64(upper-lower) / (tm.Note256thDelay * float64(tm.BufferSize))))
	}
	assert.Equal(t, wantExtension, s.Note256thOffsetLast-s.Note256thOffset)
}

func TestGetNote256thAttackAtPositionReadsFlatGrid(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	s := NewTickScheduler()

	assert.Equal(t, tm.Note256thAttack[0][0], s.GetNote256thAttackAtPosition(tm, 0))
	assert.Equal(t, tm.Note256thAttack[1][1], s.GetNote256thAttackAtPosition(tm, DefaultPeriod+1))
	assert.Equal(t, tm.Note256thAttack[31][DefaultPeriod-1], s.GetNote256thAttackAtPosition(tm, attackPositions-1))
	assert.Equal(t, 0, s.GetNote256thAttackAtPosition(tm, -1))
}

func TestGetNote256thAttackWindowIsWellFormed(t *testing.T) {
	tm := NewTimeModel(44100, 1024)
	s := NewTickScheduler()

	lower, upper := s.GetNote256thAttackPosition(tm)
	assert.GreaterOrEqual(t, lower, 0)
	assert.Less(t, lower, attackPositions)
	assert.GreaterOrEqual(t, upper, 0)
	assert.Less(t, upper, attackPositions)
}
