package ags

import "sync"

// RingBuffer holds N independently lockable generations of PCM frames (spec
// §3/§4.2). Each generation carries its own mutex; sub-block mutexes (N x
// subBlockCount x channels) permit parallel partial writes within a
// generation. The rotation index (appBufferMode) may only be advanced via
// SwitchBuffer, which the tick scheduler drives through a task so it stays
// serialized with consumers (spec §4.2).
//
// Grounded on tq.go's per-channel array-of-locks shape
// (wake_up_cond[MAX_RADIO_CHANS]), generalized here to one lock per
// generation and a second dimension of locks per sub-block.
type RingBuffer struct {
	generations  int
	channels     int
	bufferSize   int
	format       Format
	subBlockSize int

	genMu  []sync.Mutex
	frames [][]byte

	subMu [][]sync.Mutex // [generation][subBlock*channels + channel]

	// modeMu guards appBufferMode so rotation (on the task worker) and the
	// Current/Next/Prev reads (on audio and consumer threads) never observe
	// a torn index.
	modeMu        sync.Mutex
	appBufferMode int // current generation index, advanced only by SwitchBuffer.
}

// NewRingBuffer allocates a RingBuffer with the given generation count and
// presets. generations is fixed for the lifetime of a backend variant (4 for
// push-daemon, 8 for polled/pull-host, spec §4.2).
func NewRingBuffer(generations int, channels, bufferSize int, format Format, subBlockCount int) (*RingBuffer, error) {
	rb := &RingBuffer{generations: generations}
	if err := rb.reallocLocked(channels, bufferSize, format, subBlockCount); err != nil {
		return nil, err
	}
	return rb, nil
}

// reallocLocked frees and reallocates all generations, zero-initialized.
// Per spec §4.2 this happens whenever channels, samplerate, buffer_size or
// format changes; samplerate itself doesn't affect frame size so it is not
// a parameter here. The generation index is reset to 0 only by the caller,
// and only when the soundcard is not running (enforced by Soundcard, not
// here).
func (rb *RingBuffer) reallocLocked(channels, bufferSize int, format Format, subBlockCount int) error {
	sampleSize, err := SizeOf(format)
	if err != nil {
		return err
	}

	frameSize := channels * bufferSize * sampleSize
	if subBlockCount <= 0 {
		subBlockCount = 1
	}

	rb.channels = channels
	rb.bufferSize = bufferSize
	rb.format = format
	rb.subBlockSize = subBlockCount

	rb.genMu = make([]sync.Mutex, rb.generations)
	rb.frames = make([][]byte, rb.generations)
	rb.subMu = make([][]sync.Mutex, rb.generations)

	for g := 0; g < rb.generations; g++ {
		rb.frames[g] = make([]byte, frameSize)
		rb.subMu[g] = make([]sync.Mutex, subBlockCount*channels)
	}

	return nil
}

// SetPresets reallocates the ring buffer for new channels/bufferSize/format.
// resetIndex should be true only when the owning soundcard is not running.
func (rb *RingBuffer) SetPresets(channels, bufferSize int, format Format, subBlockCount int, resetIndex bool) error {
	if err := rb.reallocLocked(channels, bufferSize, format, subBlockCount); err != nil {
		return err
	}
	if resetIndex {
		rb.modeMu.Lock()
		rb.appBufferMode = 0
		rb.modeMu.Unlock()
	}
	return nil
}

// FrameSize returns the byte size of one generation's buffer.
func (rb *RingBuffer) FrameSize() int {
	if len(rb.frames) == 0 {
		return 0
	}
	return len(rb.frames[0])
}

func (rb *RingBuffer) index(delta int) int {
	rb.modeMu.Lock()
	mode := rb.appBufferMode
	rb.modeMu.Unlock()

	n := rb.generations
	return ((mode+delta)%n + n) % n
}

// Current returns the base pointer (slice) of the current generation.
func (rb *RingBuffer) Current() []byte { return rb.frames[rb.index(0)] }

// Next returns the base pointer of generation current+1 mod N.
func (rb *RingBuffer) Next() []byte { return rb.frames[rb.index(1)] }

// Prev returns the base pointer of generation current-1 mod N.
func (rb *RingBuffer) Prev() []byte { return rb.frames[rb.index(-1)] }

// CurrentIndex returns the raw generation index (app_buffer_mode).
func (rb *RingBuffer) CurrentIndex() int {
	rb.modeMu.Lock()
	defer rb.modeMu.Unlock()
	return rb.appBufferMode
}

// LockBuffer acquires the generation mutex owning buf. buf must be one of
// the generation base slices (compared by identity of the backing array);
// otherwise LockBuffer is a no-op, matching spec §4.1's "pointer must be one
// of the generation bases (else no-op)".
func (rb *RingBuffer) LockBuffer(buf []byte) {
	if g, ok := rb.generationOf(buf); ok {
		rb.genMu[g].Lock()
	}
}

// UnlockBuffer releases the generation mutex owning buf, or is a no-op if
// buf isn't a generation base.
func (rb *RingBuffer) UnlockBuffer(buf []byte) {
	if g, ok := rb.generationOf(buf); ok {
		rb.genMu[g].Unlock()
	}
}

func (rb *RingBuffer) generationOf(buf []byte) (int, bool) {
	if buf == nil {
		return 0, false
	}
	for g, frame := range rb.frames {
		if len(frame) > 0 && len(buf) > 0 && &frame[0] == &buf[0] {
			return g, true
		}
	}
	return 0, false
}

// LockSubBlock acquires the sub-block mutex for (generation, subBlock,
// channel), permitting parallel partial writes within one generation.
func (rb *RingBuffer) LockSubBlock(generation, subBlock, channel int) {
	rb.subMu[generation][subBlock*rb.channels+channel].Lock()
}

// UnlockSubBlock releases the sub-block mutex for (generation, subBlock,
// channel).
func (rb *RingBuffer) UnlockSubBlock(generation, subBlock, channel int) {
	rb.subMu[generation][subBlock*rb.channels+channel].Unlock()
}

// ClearCurrent zeroes the current generation's buffer under its generation
// mutex, so a consumer holding LockBuffer never observes a half-zeroed
// frame. This is the action the ClearBuffer task performs.
func (rb *RingBuffer) ClearCurrent() {
	g := rb.index(0)
	rb.genMu[g].Lock()
	buf := rb.frames[g]
	for i := range buf {
		buf[i] = 0
	}
	rb.genMu[g].Unlock()
}

// SwitchBuffer advances app_buffer_mode by one, modulo the generation count.
// This is the only legal mutation of the rotation index (spec §4.2); it
// MUST be invoked only from the SwitchBufferFlag task so it stays serialized
// with consumers through the task launcher.
func (rb *RingBuffer) SwitchBuffer() {
	rb.modeMu.Lock()
	rb.appBufferMode = (rb.appBufferMode + 1) % rb.generations
	rb.modeMu.Unlock()
}

// Generations returns the configured generation count (N).
func (rb *RingBuffer) Generations() int { return rb.generations }
