package ags

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ShareMode selects exclusive or shared host-API access for Variant C
// (spec §4.4, §6 soundcard/wasapi-share-mode).
type ShareMode int

const (
	ShareModeShared ShareMode = iota
	ShareModeExclusive
)

// PullHostSoundcard is Variant C (spec §4.4): the OS/host API owns the
// cadence and invokes the soundcard back. Backed by
// github.com/gordonklaus/portaudio, the cross-platform stand-in for the
// exclusive/shared host-callback APIs (WASAPI, CoreAudio, ALSA-callback)
// the spec describes. 8 generations for deep pipelining.
type PullHostSoundcard struct {
	*Soundcard

	mode ShareMode

	streamMu sync.Mutex
	stream   *portaudio.Stream

	recording bool
	playing   bool
}

// NewPullHostSoundcard constructs a Variant C soundcard.
func NewPullHostSoundcard(deviceID string, p Presets, mode ShareMode) (*PullHostSoundcard, error) {
	base, err := newSoundcard(deviceID, DeepPipelineGenerations, 1, p)
	if err != nil {
		return nil, err
	}
	return &PullHostSoundcard{Soundcard: base, mode: mode}, nil
}

// streamParameters builds the native stream descriptor from the current
// presets' channels, samplerate and buffer size; the preset sample format
// is not part of it. The host is probed for support when openLocked opens
// the stream.
func (ph *PullHostSoundcard) streamParameters() (portaudio.StreamParameters, error) {
	presets := ph.GetPresets()

	inDev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return portaudio.StreamParameters{}, &SoundcardError{Kind: LockedSoundcard, Msg: "no default input device", Err: err}
	}
	outDev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return portaudio.StreamParameters{}, &SoundcardError{Kind: LockedSoundcard, Msg: "no default output device", Err: err}
	}

	// Exclusive mode asks the host for its low-latency path; shared mode
	// settles for the mixer-friendly high-latency defaults.
	var params portaudio.StreamParameters
	if ph.mode == ShareModeExclusive {
		params = portaudio.LowLatencyParameters(inDev, outDev)
	} else {
		params = portaudio.HighLatencyParameters(inDev, outDev)
	}
	params.Input.Channels = presets.Channels
	params.Output.Channels = presets.Channels
	params.SampleRate = float64(presets.Samplerate)
	params.FramesPerBuffer = presets.BufferSize

	return params, nil
}

// openLocked opens and starts the host stream, the "validates by probing
// the host for support" + "starts the session" part of spec §4.4.
func (ph *PullHostSoundcard) openLocked() error {
	if err := portaudio.Initialize(); err != nil {
		return &SoundcardError{Kind: BrokenConfiguration, Msg: "portaudio initialize failed", Err: err}
	}

	params, err := ph.streamParameters()
	if err != nil {
		portaudio.Terminate()
		return err
	}

	buf := make([]float32, params.Input.Channels*params.FramesPerBuffer)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		portaudio.Terminate()
		return &SoundcardError{Kind: UnsupportedFormat, Msg: "host rejected stream format", Err: err}
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return &SoundcardError{Kind: BrokenConfiguration, Msg: "host stream start failed", Err: err}
	}

	ph.streamMu.Lock()
	ph.stream = stream
	ph.streamMu.Unlock()

	return nil
}

func (ph *PullHostSoundcard) RecordInit() error {
	ph.mu.Lock()
	if ph.state == StateStarted {
		ph.mu.Unlock()
		return nil
	}
	ph.mu.Unlock()

	if err := ph.openLocked(); err != nil {
		return err
	}

	ph.mu.Lock()
	ph.state = StateStarted
	ph.shutdown.Store(false)
	ph.mu.Unlock()
	return nil
}

func (ph *PullHostSoundcard) PlayInit() error { return ph.RecordInit() }

// Stop issues the host's Stop+Reset+Release sequence in that order (spec
// §4.4); the task launcher is left running. Setting SHUTDOWN first makes
// the main recording loop exit before any host resources are released.
func (ph *PullHostSoundcard) Stop() {
	ph.RequestShutdown()

	ph.streamMu.Lock()
	stream := ph.stream
	ph.stream = nil
	ph.streamMu.Unlock()

	if stream != nil {
		stream.Stop()  // Stop
		stream.Abort() // Reset
		stream.Close() // Release
		portaudio.Terminate()
	}

	ph.mu.Lock()
	ph.state = StateStopped
	ph.recording = false
	ph.playing = false
	ph.mu.Unlock()
}

// Record performs one block of capture I/O: the host has already delivered
// the block into the stream's buffer by the time this is driven by the
// host's callback thread; this just advances the scheduler.
func (ph *PullHostSoundcard) Record() error {
	if ph.isShutdown() {
		return &SoundcardError{Kind: DeviceInvalidated, Msg: "pull-host backend is shut down"}
	}

	ph.streamMu.Lock()
	stream := ph.stream
	ph.streamMu.Unlock()
	if stream == nil {
		return &SoundcardError{Kind: ServiceNotRunning, Msg: "pull-host stream not open"}
	}

	if err := stream.Read(); err != nil {
		Logger.Warn("pull-host read failed, skipping block", "err", err)
		return &SoundcardError{Kind: DeviceInvalidated, Msg: "host read failed", Err: err}
	}

	ph.mu.Lock()
	ph.recording = true
	ph.mu.Unlock()
	ph.Tic()
	return nil
}

// Play mirrors Record for the playback direction.
func (ph *PullHostSoundcard) Play() error {
	if ph.isShutdown() {
		return &SoundcardError{Kind: DeviceInvalidated, Msg: "pull-host backend is shut down"}
	}

	ph.streamMu.Lock()
	stream := ph.stream
	ph.streamMu.Unlock()
	if stream == nil {
		return &SoundcardError{Kind: ServiceNotRunning, Msg: "pull-host stream not open"}
	}

	if err := stream.Write(); err != nil {
		Logger.Warn("pull-host write failed, skipping block", "err", err)
		return &SoundcardError{Kind: DeviceInvalidated, Msg: "host write failed", Err: err}
	}

	ph.mu.Lock()
	ph.playing = true
	ph.mu.Unlock()
	ph.Tic()
	return nil
}

func (ph *PullHostSoundcard) GetCapability() Capability {
	return CapabilityPlayback | CapabilityCapture | CapabilityDuplex
}

func (ph *PullHostSoundcard) PCMInfo(cardID string) (PCMBounds, error) {
	return ph.pcmBounds(cardID)
}

func (ph *PullHostSoundcard) IsRecording() bool {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	return ph.recording && ph.state == StateStarted
}

func (ph *PullHostSoundcard) IsPlaying() bool {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	return ph.playing && ph.state == StateStarted
}
