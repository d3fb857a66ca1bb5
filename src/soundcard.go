package ags

import (
	"fmt"
	"sync/atomic"
)

// Presets is the device preset tuple of spec §3: channels, samplerate,
// buffer_size and sample format.
type Presets struct {
	Channels   int
	Samplerate int
	BufferSize int
	Format     Format
}

// Validate checks the bounds invariants of spec §3. Returns an OutOfRange
// *SoundcardError on violation.
func (p Presets) Validate() error {
	if p.Samplerate < MinSamplerate || p.Samplerate > MaxSamplerate {
		return &SoundcardError{Kind: OutOfRange, Msg: fmt.Sprintf("samplerate %d out of [%d, %d]", p.Samplerate, MinSamplerate, MaxSamplerate)}
	}
	if p.BufferSize < MinBufferSize || p.BufferSize > MaxBufferSize {
		return &SoundcardError{Kind: OutOfRange, Msg: fmt.Sprintf("buffer_size %d out of [%d, %d]", p.BufferSize, MinBufferSize, MaxBufferSize)}
	}
	if p.Channels < MinChannels || p.Channels > MaxChannels {
		return &SoundcardError{Kind: OutOfRange, Msg: fmt.Sprintf("channels %d out of [%d, %d]", p.Channels, MinChannels, MaxChannels)}
	}
	if _, err := SizeOf(p.Format); err != nil {
		return err
	}
	return nil
}

// LifecycleState is the soundcard's state (spec §3). The backends move a
// card from uninitialized or stopped straight to started in RecordInit/
// PlayInit, and to stopped in Stop. No backend sets StateInitialized, so
// IsStarting reports false, and a stopped card does not return to
// uninitialized. Transitions happen under Soundcard's mutex.
type LifecycleState int

const (
	StateUninitialized LifecycleState = iota
	StateInitialized
	StateStarted
	StateStopped
)

func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PCMBounds are the device capability bounds returned by PCMInfo (spec
// §4.1).
type PCMBounds struct {
	ChannelsMin, ChannelsMax       int
	RateMin, RateMax               int
	BufferSizeMin, BufferSizeMax   int
}

// SoundcardContract is the polymorphic capability every backend variant
// exposes (spec §4.1). Each backend embeds *Soundcard for the operations
// that are common across variants, and defines its own RecordInit/PlayInit/
// Stop/Record/Play/GetCapability/PCMInfo for the parts that are genuinely
// backend-specific (spec §4.4, §9: "composition: each backend struct embeds
// a common soundcard state value").
type SoundcardContract interface {
	SetPresets(p Presets) error
	GetPresets() Presets

	ListCards() (cardIDs []string, cardNames []string, err error)
	PCMInfo(cardID string) (PCMBounds, error)
	GetCapability() Capability

	RecordInit() error
	PlayInit() error
	Stop()
	Record() error
	Play() error
	Tic()

	GetBuffer() []byte
	GetNextBuffer() []byte
	GetPrevBuffer() []byte
	LockBuffer(buf []byte)
	UnlockBuffer(buf []byte)

	GetDelayCounter() float64
	GetNoteOffset() uint
	GetNoteOffsetAbsolute() uint64
	GetLoopOffset() uint
	GetStartNoteOffset() uint
	GetDelay() float64
	GetAttack() int
	GetAbsoluteDelay() float64
	GetBPM() float64
	GetDelayFactor() float64
	SetBPM(bpm float64)
	SetDelayFactor(f float64)

	GetNote256thOffset() (lower, upper uint)
	GetNote256thAttack() (lower, upper int)
	GetNote256thAttackAtPosition(pos int) int
	GetNote256thAttackPosition() (lower, upper int)
	GetNote256thAttackOf16thPulse() int
	GetNote256thAttackOf16thPulsePosition() int

	SetLoop(loopLeft, loopRight uint, doLoop bool)
	GetLoop() (loopLeft, loopRight uint, doLoop bool)

	IsStarting() bool
	IsRecording() bool
	IsPlaying() bool
	IsAvailable() bool

	GetUptime() string
}

// Soundcard is the common state embedded by every backend variant: device
// id, presets, ring buffer, time model, scheduler, lifecycle state and
// shutdown flag (spec §3). Grounded on dwgps.go's single-mutex-guards-one-
// struct shape, generalized to the full soundcard/generation/sub-block
// lock order of spec §5.
type Soundcard struct {
	mu objMutex

	deviceID string
	presets  Presets
	state    LifecycleState

	ringBuffer *RingBuffer
	timeModel  *TimeModel
	scheduler  *TickScheduler
	launcher   *TaskLauncher

	subBlockCount int
	generations   int

	shutdown atomic.Bool

	// onTic is notified by the TaskTic task; it is the generalization of
	// AGS's AgsTaskTicDevice fanning out to dependent DSP consumers (spec
	// §9: replace the per-port callback explosion with a single data-driven
	// dispatch).
	onTic []func(noteOffset uint)
}

// newSoundcard builds the common state for a backend variant.
func newSoundcard(deviceID string, generations int, subBlockCount int, p Presets) (*Soundcard, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rb, err := NewRingBuffer(generations, p.Channels, p.BufferSize, p.Format, subBlockCount)
	if err != nil {
		return nil, err
	}

	sc := &Soundcard{
		deviceID:      deviceID,
		presets:       p,
		state:         StateUninitialized,
		ringBuffer:    rb,
		timeModel:     NewTimeModel(p.Samplerate, p.BufferSize),
		scheduler:     NewTickScheduler(),
		launcher:      NewTaskLauncher(3 * 4),
		subBlockCount: subBlockCount,
		generations:   generations,
	}
	return sc, nil
}

// SetPresets implements spec §4.1 set_presets: validates, and on an actual
// change reallocates the ring buffer and recomputes the time model. It
// fails silently (no-op, no error) if the new presets are identical to the
// current ones.
func (sc *Soundcard) SetPresets(p Presets) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.setPresetsLocked(p)
}

func (sc *Soundcard) setPresetsLocked(p Presets) error {
	if p == sc.presets {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}

	resetIndex := sc.state != StateStarted
	if err := sc.ringBuffer.SetPresets(p.Channels, p.BufferSize, p.Format, sc.subBlockCount, resetIndex); err != nil {
		return err
	}

	sc.presets = p
	sc.timeModel.Samplerate = p.Samplerate
	sc.timeModel.BufferSize = p.BufferSize
	sc.timeModel.AdjustDelayAndAttack()
	return nil
}

// GetPresets implements spec §4.1 get_presets.
func (sc *Soundcard) GetPresets() Presets {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.presets
}

// SetChannels, SetSamplerate, SetBufferSize and SetFormat adjust one preset
// field each, reallocating the ring buffer and recomputing the time model
// the same way SetPresets does (spec §4.3: the setters implicitly
// recompute).
func (sc *Soundcard) SetChannels(channels int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	p := sc.presets
	p.Channels = channels
	return sc.setPresetsLocked(p)
}

func (sc *Soundcard) SetSamplerate(rate int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	p := sc.presets
	p.Samplerate = rate
	return sc.setPresetsLocked(p)
}

func (sc *Soundcard) SetBufferSize(bufferSize int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	p := sc.presets
	p.BufferSize = bufferSize
	return sc.setPresetsLocked(p)
}

func (sc *Soundcard) SetFormat(format Format) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	p := sc.presets
	p.Format = format
	return sc.setPresetsLocked(p)
}

// ListCards enumerates the sound devices visible to this process (spec §4.1
// list_cards); all variants share the platform enumeration.
func (sc *Soundcard) ListCards() (cardIDs []string, cardNames []string, err error) {
	return ListCards()
}

// pcmBounds answers PCMInfo for a backend: the published preset bounds for
// the backend's own device, a PCMInfoUnavailable error for anything else
// (spec §4.1 pcm_info).
func (sc *Soundcard) pcmBounds(cardID string) (PCMBounds, error) {
	if _, _, err := ParseDeviceID(cardID); err != nil || cardID != sc.DeviceID() {
		return PCMBounds{}, &SoundcardError{Kind: PCMInfoUnavailable, Msg: fmt.Sprintf("unknown device %q", cardID)}
	}
	return PCMBounds{
		ChannelsMin: MinChannels, ChannelsMax: MaxChannels,
		RateMin: MinSamplerate, RateMax: MaxSamplerate,
		BufferSizeMin: MinBufferSize, BufferSizeMax: MaxBufferSize,
	}, nil
}

// DeviceID returns the device identifier string.
func (sc *Soundcard) DeviceID() string { return sc.deviceID }

// SetDeviceID validates and sets a new device identifier. Per spec §6,
// setting a name that doesn't start with the expected prefix is an error
// and leaves the device unchanged.
func (sc *Soundcard) SetDeviceID(id string) error {
	if _, _, err := ParseDeviceID(id); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.deviceID = id
	return nil
}

// GetBuffer / GetNextBuffer / GetPrevBuffer implement spec §4.1.
func (sc *Soundcard) GetBuffer() []byte     { return sc.ringBuffer.Current() }
func (sc *Soundcard) GetNextBuffer() []byte { return sc.ringBuffer.Next() }
func (sc *Soundcard) GetPrevBuffer() []byte { return sc.ringBuffer.Prev() }

func (sc *Soundcard) LockBuffer(buf []byte)   { sc.ringBuffer.LockBuffer(buf) }
func (sc *Soundcard) UnlockBuffer(buf []byte) { sc.ringBuffer.UnlockBuffer(buf) }

// GetDelayCounter, GetNoteOffset, etc. are read-only scheduler queries
// (spec §4.1).
func (sc *Soundcard) GetDelayCounter() float64      { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.scheduler.DelayCounter }
func (sc *Soundcard) GetNoteOffset() uint           { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.scheduler.NoteOffset }
func (sc *Soundcard) GetNoteOffsetAbsolute() uint64 { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.scheduler.NoteOffsetAbsolute }
func (sc *Soundcard) GetLoopOffset() uint           { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.scheduler.LoopOffset }
func (sc *Soundcard) GetStartNoteOffset() uint      { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.scheduler.StartNoteOffset }

func (sc *Soundcard) GetDelay() float64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.timeModel.Delay[sc.scheduler.TicCounter]
}

func (sc *Soundcard) GetAttack() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.timeModel.Attack[sc.scheduler.TicCounter]
}

func (sc *Soundcard) GetAbsoluteDelay() float64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.timeModel.AbsoluteDelay()
}

func (sc *Soundcard) GetBPM() float64 { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.timeModel.BPM }
func (sc *Soundcard) SetBPM(bpm float64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.timeModel.SetBPM(bpm)
}

func (sc *Soundcard) GetDelayFactor() float64 { sc.mu.Lock(); defer sc.mu.Unlock(); return sc.timeModel.DelayFactor }
func (sc *Soundcard) SetDelayFactor(f float64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.timeModel.SetDelayFactor(f)
}

// GetNote256thOffset returns the current sub-tick window covered by the
// present block (spec §4.1).
func (sc *Soundcard) GetNote256thOffset() (lower, upper uint) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.Note256thOffset, sc.scheduler.Note256thOffsetLast
}

func (sc *Soundcard) GetNote256thAttack() (lower, upper int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.GetNote256thAttack(sc.timeModel)
}

func (sc *Soundcard) GetNote256thAttackAtPosition(pos int) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.GetNote256thAttackAtPosition(sc.timeModel, pos)
}

func (sc *Soundcard) GetNote256thAttackPosition() (lower, upper int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.GetNote256thAttackPosition(sc.timeModel)
}

func (sc *Soundcard) GetNote256thAttackOf16thPulse() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.Note256thAttackOf16thPulse
}

func (sc *Soundcard) GetNote256thAttackOf16thPulsePosition() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.Note256thAttackOf16thPulsePosition
}

// SetNoteOffset repositions the transport (spec §4.1); the 256th window
// realigns to the new 16th position.
func (sc *Soundcard) SetNoteOffset(noteOffset uint) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.scheduler.SetNoteOffset(noteOffset)
}

// SetStartNoteOffset records the transport's starting anchor (spec §4.1).
func (sc *Soundcard) SetStartNoteOffset(noteOffset uint) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.scheduler.SetStartNoteOffset(noteOffset)
}

// SetLoop / GetLoop implement spec §4.1's transport loop.
func (sc *Soundcard) SetLoop(loopLeft, loopRight uint, doLoop bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.scheduler.SetLoop(loopLeft, loopRight, doLoop)
}

func (sc *Soundcard) GetLoop() (loopLeft, loopRight uint, doLoop bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.scheduler.GetLoop()
}

// IsStarting / IsRecording / IsPlaying / IsAvailable are the state
// predicates of spec §4.1. Backends track Recording/Playing themselves;
// IsStarting and IsAvailable are common to all variants.
func (sc *Soundcard) IsStarting() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state == StateInitialized
}

func (sc *Soundcard) IsAvailable() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state == StateStarted && !sc.shutdown.Load()
}

// OnTic registers a consumer callback invoked by the TaskTic task (spec §9's
// data-driven dispatch replacing the per-port callback explosion).
func (sc *Soundcard) OnTic(fn func(noteOffset uint)) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.onTic = append(sc.onTic, fn)
}

// RequestShutdown sets the SHUTDOWN flag (spec §5): the only cancellation
// mechanism. The next block releases backend resources and no further
// tasks are posted.
func (sc *Soundcard) RequestShutdown() { sc.shutdown.Store(true) }

func (sc *Soundcard) isShutdown() bool { return sc.shutdown.Load() }

// tic executes the §4.5 algorithm under the soundcard mutex and, unless
// SHUTDOWN is set, posts exactly one each of Tic/ClearBuffer/
// SwitchBufferFlag in that order (spec §4.5 failure semantics: "if the
// backend is SHUTDOWN before step 3, no tasks are posted"). The Tic task
// fans the new note offset out to consumers on the worker thread; the
// buffer mutations ride behind it in FIFO order.
func (sc *Soundcard) tic() {
	sc.mu.Lock()

	if sc.isShutdown() {
		sc.mu.Unlock()
		return
	}

	sc.scheduler.Advance(sc.timeModel)
	sc.mu.Unlock()

	sc.launcher.AddTaskAll([]Task{
		{Type: TaskTic, Soundcard: sc},
		{Type: TaskClearBuffer, Soundcard: sc},
		{Type: TaskSwitchBufferFlag, Soundcard: sc},
	})
}

// notifyTic runs on the task worker: it snapshots the consumer hooks and the
// published note offset, then invokes each hook outside the soundcard mutex.
func (sc *Soundcard) notifyTic() {
	sc.mu.Lock()
	noteOffset := sc.scheduler.NoteOffset
	hooks := append([]func(uint){}, sc.onTic...)
	sc.mu.Unlock()

	for _, fn := range hooks {
		fn(noteOffset)
	}
}

// Tic is the public entry point called by whoever owns the block cadence
// (spec §4.1 tic()).
func (sc *Soundcard) Tic() { sc.tic() }

// GetUptime returns a human-readable "HH:MM:SS.mmm" derived from
// note_offset_absolute, bpm, delay and delay_factor; the zero string when
// not running (spec §4.1).
func (sc *Soundcard) GetUptime() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state != StateStarted {
		return "00:00:00.000"
	}

	absDelay := sc.timeModel.AbsoluteDelay()
	if absDelay <= 0 {
		return "00:00:00.000"
	}

	blockSeconds := float64(sc.timeModel.BufferSize) / float64(sc.timeModel.Samplerate)
	totalSeconds := float64(sc.scheduler.NoteOffsetAbsolute) * absDelay * blockSeconds

	return formatUptime(totalSeconds)
}
