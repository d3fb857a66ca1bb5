package ags

import "math"

// attackPositions is the total number of 256th-note attack slots the time
// model keeps: 32 rows of period entries, addressed as one flat grid.
const attackPositions = 32 * DefaultPeriod

// TickScheduler advances note offset, the 256th-offset window and loop
// handling, exactly once per audio block (spec §3, §4.5); task emission is
// done by its caller, Soundcard.tic.
// There is no teacher equivalent for the musical-time arithmetic; it is
// built directly from the spec's algorithm.
type TickScheduler struct {
	TicCounter         int // [0, period)
	DelayCounter       float64
	TactCounter        uint64
	NoteOffset         uint
	NoteOffsetAbsolute uint64
	StartNoteOffset    uint

	LoopLeft   uint
	LoopRight  uint
	DoLoop     bool
	LoopOffset uint

	Note256thOffset     uint
	Note256thOffsetLast uint

	Note256thAttackOf16thPulse         int
	Note256thAttackOf16thPulsePosition int
}

// NewTickScheduler returns a scheduler at rest: tic_counter=0,
// delay_counter=0, note_offset=0.
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

// SetNoteOffset repositions the transport, keeping the 256th offset window
// aligned to the new 16th position.
func (s *TickScheduler) SetNoteOffset(noteOffset uint) {
	s.NoteOffset = noteOffset
	s.Note256thOffset = SixteenthsPerBar * noteOffset
	s.Note256thOffsetLast = s.Note256thOffset
}

// SetStartNoteOffset records where the transport began, the anchor both
// looping and uptime reporting measure from.
func (s *TickScheduler) SetStartNoteOffset(noteOffset uint) {
	s.StartNoteOffset = noteOffset
}

// GetNote256thAttackAtPosition reads the 256th-note attack grid at an
// arbitrary position in [0, 32*period), row pos/period, column pos%period
// (spec §4.1 get_note_256th_attack_at_position).
func (s *TickScheduler) GetNote256thAttackAtPosition(tm *TimeModel, pos int) int {
	if pos < 0 {
		return 0
	}
	pos %= attackPositions
	return tm.Note256thAttack[pos/DefaultPeriod][pos%DefaultPeriod]
}

// GetNote256thAttackPosition computes the (lower, upper) grid positions the
// current block covers: lower starts at 16*tic_counter and backs up one slot
// per whole 256th span that fits inside the current attack offset; upper
// walks forward while the attack plus the next span still lands inside the
// buffer (spec §4.1 get_note_256th_attack_position).
func (s *TickScheduler) GetNote256thAttackPosition(tm *TimeModel) (lower, upper int) {
	lower = SixteenthsPerBar * s.TicCounter

	if tm.Note256thDelay <= 0 {
		return lower, lower
	}

	span := tm.Note256thDelay * float64(tm.BufferSize)
	if span <= 0 {
		return lower, lower
	}

	attack := float64(tm.Attack[s.TicCounter])
	for i := 1; attack-float64(i)*span >= 0 && lower > 0; i++ {
		lower--
	}

	upper = lower
	base := float64(s.GetNote256thAttackAtPosition(tm, lower))
	for i := 1; base+math.Floor(float64(i)*span) < float64(tm.BufferSize); i++ {
		upper = (upper + 1) % attackPositions
	}

	return lower, upper
}

// GetNote256thAttack returns the attack offsets at the window's lower and
// upper positions (spec §4.1 get_note_256th_attack).
func (s *TickScheduler) GetNote256thAttack(tm *TimeModel) (lower, upper int) {
	lo, hi := s.GetNote256thAttackPosition(tm)
	return s.GetNote256thAttackAtPosition(tm, lo), s.GetNote256thAttackAtPosition(tm, hi)
}

// Advance runs the §4.5 algorithm for one audio block against the given
// time model: either the 16th boundary fires (loop wrap or note_offset
// increment, 16th-pulse attack recompute, delay_counter rollover) or the
// 256th window slides within the current 16th. Reports whether the boundary
// fired. Task emission is the caller's job and happens on every block
// regardless of the boundary.
func (s *TickScheduler) Advance(tm *TimeModel) (boundary bool) {
	delay := tm.Delay[s.TicCounter]

	lower, upper := s.GetNote256thAttack(tm)

	if s.DelayCounter+1 >= math.Floor(delay) {
		if s.DoLoop && s.NoteOffset+1 == s.LoopRight {
			s.NoteOffset = s.LoopLeft
			s.LoopOffset += s.LoopRight - s.LoopLeft
			s.Note256thOffset = SixteenthsPerBar * s.LoopLeft
		} else {
			s.NoteOffset++
			s.Note256thOffset = SixteenthsPerBar * s.NoteOffset
		}

		s.Note256thOffsetLast = s.Note256thOffset
		if tm.Note256thDelay > 0 && tm.Note256thDelay < 1 && upper > lower {
			extension := uint(math.Floor(float64(upper-lower) / (tm.Note256thDelay * float64(tm.BufferSize))))
			s.Note256thOffsetLast += extension
		}

		s.recomputeNote256thAttackOf16thPulse(tm)

		s.NoteOffsetAbsolute++
		s.offsetChanged()

		s.DelayCounter = s.DelayCounter + 1 - delay
		s.TactCounter++

		return true
	}

	if tm.Note256thDelay > 0 {
		s.Note256thOffset = SixteenthsPerBar*s.NoteOffset + uint(math.Floor((s.DelayCounter+1)*(1.0/tm.Note256thDelay)))
	}
	if tm.Note256thDelay > 0 && tm.Note256thDelay < 1 && upper > lower {
		extension := uint(math.Floor(float64(upper-lower) / (tm.Note256thDelay * float64(tm.BufferSize))))
		s.Note256thOffsetLast = s.Note256thOffset + extension
	} else {
		s.Note256thOffsetLast = s.Note256thOffset
	}
	s.DelayCounter++

	return false
}

// recomputeNote256thAttackOf16thPulse walks backwards from the current
// attack up to ceil(1/note_256th_delay) grid positions while the
// attack-at-position keeps decreasing, then advances the pulse position by
// the number of slots consumed (spec §4.5 step 3c).
func (s *TickScheduler) recomputeNote256thAttackOf16thPulse(tm *TimeModel) {
	attack := tm.Attack[s.TicCounter]
	pos := s.Note256thAttackOf16thPulsePosition

	best := attack
	i := 1

	if tm.Note256thDelay > 0 && tm.Note256thDelay < 1 && pos != 0 {
		maxSteps := int(math.Ceil(1.0 / tm.Note256thDelay))
		for ; i < maxSteps; i++ {
			if pos-i < 0 {
				break
			}
			candidate := s.GetNote256thAttackAtPosition(tm, pos-i)
			if candidate < best {
				best = candidate
			} else {
				break
			}
		}
	}

	s.Note256thAttackOf16thPulse = best
	s.Note256thAttackOf16thPulsePosition = (pos + i) % attackPositions
}

// offsetChanged advances tic_counter modulo period (spec §4.5 step 3d).
func (s *TickScheduler) offsetChanged() {
	s.TicCounter = (s.TicCounter + 1) % DefaultPeriod
}

// SetLoop sets the transport loop (spec §4.1 set_loop).
func (s *TickScheduler) SetLoop(loopLeft, loopRight uint, doLoop bool) {
	s.LoopLeft = loopLeft
	s.LoopRight = loopRight
	s.DoLoop = doLoop
}

// GetLoop reads the transport loop (spec §4.1 get_loop).
func (s *TickScheduler) GetLoop() (loopLeft, loopRight uint, doLoop bool) {
	return s.LoopLeft, s.LoopRight, s.DoLoop
}
