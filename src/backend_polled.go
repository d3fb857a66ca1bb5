package ags

import "time"

// PolledDeviceSoundcard is Variant B (spec §4.4): an 8-generation soundcard
// that synchronously consumes/produces one block per Record/Play call, no
// condvar handshake, paced instead by a soft-real-time loop that sleeps
// out each block's wall-clock duration. Grounded on the general "dedicated audio thread owns
// record/play" shape of audio.go's open/record loop, using time.Sleep
// instead of cgo OSS/ALSA ioctls (audio daemon libraries like libsoundio
// and PipeWire's simple API work this way: the caller pumps blocks on its
// own cadence).
type PolledDeviceSoundcard struct {
	*Soundcard

	recording bool
	playing   bool

	lastBlock time.Time
}

// NewPolledDeviceSoundcard constructs a Variant B soundcard with the fixed
// 8-generation ring buffer (spec §4.2).
func NewPolledDeviceSoundcard(deviceID string, p Presets) (*PolledDeviceSoundcard, error) {
	base, err := newSoundcard(deviceID, DeepPipelineGenerations, 1, p)
	if err != nil {
		return nil, err
	}
	return &PolledDeviceSoundcard{Soundcard: base}, nil
}

func (pd *PolledDeviceSoundcard) RecordInit() error { return pd.initLocked() }
func (pd *PolledDeviceSoundcard) PlayInit() error   { return pd.initLocked() }

func (pd *PolledDeviceSoundcard) initLocked() error {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.state == StateStarted {
		return nil
	}
	pd.state = StateStarted
	pd.shutdown.Store(false)
	pd.lastBlock = time.Time{}
	return nil
}

func (pd *PolledDeviceSoundcard) Stop() {
	pd.RequestShutdown()
	pd.mu.Lock()
	pd.state = StateStopped
	pd.recording = false
	pd.playing = false
	pd.mu.Unlock()
}

// pace blocks until one block's duration (buffer_size/samplerate seconds)
// of wall-clock time has passed since the previous block, the soft-real-time
// loop for a backend with no hardware or server cadence of its own. The
// first block after init does not wait.
func (pd *PolledDeviceSoundcard) pace() {
	blockSeconds := float64(pd.timeModel.BufferSize) / float64(pd.timeModel.Samplerate)
	period := time.Duration(blockSeconds * float64(time.Second))

	if pd.lastBlock.IsZero() {
		pd.lastBlock = time.Now()
		return
	}

	elapsed := time.Since(pd.lastBlock)
	if elapsed < period {
		time.Sleep(period - elapsed)
	}
	pd.lastBlock = time.Now()
}

// Record performs one block of capture I/O: pace, then advance the
// scheduler. Per spec §4.5, if SHUTDOWN was set before the tic the adapter
// posts no tasks.
func (pd *PolledDeviceSoundcard) Record() error {
	if pd.isShutdown() {
		return &SoundcardError{Kind: DeviceInvalidated, Msg: "polled device backend is shut down"}
	}
	pd.mu.Lock()
	pd.recording = true
	pd.mu.Unlock()
	pd.pace()
	pd.Tic()
	return nil
}

// Play mirrors Record for the playback direction.
func (pd *PolledDeviceSoundcard) Play() error {
	if pd.isShutdown() {
		return &SoundcardError{Kind: DeviceInvalidated, Msg: "polled device backend is shut down"}
	}
	pd.mu.Lock()
	pd.playing = true
	pd.mu.Unlock()
	pd.pace()
	pd.Tic()
	return nil
}

func (pd *PolledDeviceSoundcard) GetCapability() Capability {
	return CapabilityPlayback | CapabilityCapture
}

func (pd *PolledDeviceSoundcard) PCMInfo(cardID string) (PCMBounds, error) {
	return pd.pcmBounds(cardID)
}

func (pd *PolledDeviceSoundcard) IsRecording() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.recording && pd.state == StateStarted
}

func (pd *PolledDeviceSoundcard) IsPlaying() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.playing && pd.state == StateStarted
}
