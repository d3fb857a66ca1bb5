package ags

import (
	"sync"
)

// syncFlag is the push-daemon handshake state of spec §4.4 Variant A.
type syncFlag int

const (
	syncInitialCallback syncFlag = 1 << iota
	syncPassThrough
	syncCallbackWait
	syncCallbackDone
	syncCallbackFinishWait
	syncCallbackFinishDone
)

func (f syncFlag) has(bit syncFlag) bool { return f&bit != 0 }

// PushDaemonSoundcard is Variant A (spec §4.4): a 4-generation soundcard
// whose Record/Play wait on a pair of condition variables (callback_cond,
// callback_finish_cond). Grounded directly on tq.go's
// wake_up_cond[MAX_RADIO_CHANS]/xmit_thread_is_waiting pattern, extended to
// the two-condvar handshake the spec names.
type PushDaemonSoundcard struct {
	*Soundcard

	handshakeMu sync.Mutex
	callbackCond       *sync.Cond
	callbackFinishCond *sync.Cond

	flag syncFlag

	recording bool
	playing   bool
}

// NewPushDaemonSoundcard constructs a Variant A soundcard with the fixed
// 4-generation ring buffer (spec §4.2).
func NewPushDaemonSoundcard(deviceID string, p Presets) (*PushDaemonSoundcard, error) {
	base, err := newSoundcard(deviceID, PushDaemonGenerations, 1, p)
	if err != nil {
		return nil, err
	}
	pd := &PushDaemonSoundcard{Soundcard: base, flag: syncInitialCallback}
	pd.callbackCond = sync.NewCond(&pd.handshakeMu)
	pd.callbackFinishCond = sync.NewCond(&pd.handshakeMu)
	return pd, nil
}

// RecordInit / PlayInit move the soundcard straight to started; idempotent
// once started (spec §4.1).
func (pd *PushDaemonSoundcard) RecordInit() error { return pd.initLocked() }
func (pd *PushDaemonSoundcard) PlayInit() error   { return pd.initLocked() }

func (pd *PushDaemonSoundcard) initLocked() error {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.state == StateStarted {
		return nil
	}
	pd.state = StateStarted
	pd.shutdown.Store(false)
	return nil
}

// Stop issues the shared SHUTDOWN -> drain -> stop-scheduler contract (spec
// §4.4, §5): set SHUTDOWN, release both condvars, force PASS_THROUGH.
func (pd *PushDaemonSoundcard) Stop() {
	pd.RequestShutdown()

	pd.handshakeMu.Lock()
	pd.flag = syncPassThrough
	pd.handshakeMu.Unlock()
	pd.callbackCond.Broadcast()
	pd.callbackFinishCond.Broadcast()

	pd.mu.Lock()
	pd.state = StateStopped
	pd.recording = false
	pd.playing = false
	pd.mu.Unlock()
}

// Record performs one block of capture I/O: the producer-side handshake of
// spec §4.4 steps 1-2, then the Tic/ClearBuffer/SwitchBufferFlag emission
// (step 4), via the scheduler's Tic.
func (pd *PushDaemonSoundcard) Record() error {
	pd.mu.Lock()
	pd.recording = true
	pd.mu.Unlock()
	return pd.blockHandshake()
}

// Play mirrors Record for the playback direction.
func (pd *PushDaemonSoundcard) Play() error {
	pd.mu.Lock()
	pd.playing = true
	pd.mu.Unlock()
	return pd.blockHandshake()
}

func (pd *PushDaemonSoundcard) blockHandshake() error {
	if pd.isShutdown() {
		pd.handshakeMu.Lock()
		pd.flag = syncPassThrough
		pd.handshakeMu.Unlock()
		pd.callbackCond.Broadcast()
		pd.callbackFinishCond.Broadcast()
		return &SoundcardError{Kind: ServiceNotRunning, Msg: "push-daemon backend is shutting down"}
	}

	pd.handshakeMu.Lock()
	// Step 1: producer signals CALLBACK_DONE; wakes the adapter if
	// CALLBACK_WAIT is set. The first block clears INITIAL_CALLBACK.
	pd.flag &^= syncInitialCallback
	pd.flag |= syncCallbackDone
	if pd.flag.has(syncCallbackWait) {
		pd.callbackCond.Broadcast()
	}

	// Step 2: producer waits on CALLBACK_FINISH_DONE, setting
	// CALLBACK_FINISH_WAIT if it isn't already done.
	for !pd.flag.has(syncCallbackFinishDone) && !pd.flag.has(syncPassThrough) {
		pd.flag |= syncCallbackFinishWait
		pd.callbackFinishCond.Wait()
	}
	pd.flag &^= syncCallbackFinishWait | syncCallbackFinishDone
	shuttingDown := pd.flag.has(syncPassThrough)
	pd.handshakeMu.Unlock()

	if shuttingDown {
		return &SoundcardError{Kind: ServiceNotRunning, Msg: "push-daemon backend is shutting down"}
	}

	pd.Tic()
	return nil
}

// WaitCallbackDone blocks the server's callback thread until the producer
// has published a block (CALLBACK_DONE), setting CALLBACK_WAIT while it
// waits. Returns false when released by shutdown instead of a block.
func (pd *PushDaemonSoundcard) WaitCallbackDone() bool {
	pd.handshakeMu.Lock()
	for !pd.flag.has(syncCallbackDone) && !pd.flag.has(syncPassThrough) {
		pd.flag |= syncCallbackWait
		pd.callbackCond.Wait()
	}
	pd.flag &^= syncCallbackWait | syncCallbackDone
	ok := !pd.flag.has(syncPassThrough)
	pd.handshakeMu.Unlock()
	return ok
}

// SignalCallbackDone lets the owning JACK-like server thread acknowledge
// the handshake, completing step 2 so Record/Play's wait returns. In a real
// deployment the server callback calls this once it has consumed the
// current generation.
func (pd *PushDaemonSoundcard) SignalCallbackDone() {
	pd.handshakeMu.Lock()
	pd.flag |= syncCallbackFinishDone
	pd.handshakeMu.Unlock()
	pd.callbackFinishCond.Broadcast()
}

func (pd *PushDaemonSoundcard) GetCapability() Capability {
	return CapabilityPlayback | CapabilityCapture | CapabilityDuplex
}

func (pd *PushDaemonSoundcard) PCMInfo(cardID string) (PCMBounds, error) {
	return pd.pcmBounds(cardID)
}

func (pd *PushDaemonSoundcard) IsRecording() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.recording && pd.state == StateStarted
}

func (pd *PushDaemonSoundcard) IsPlaying() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.playing && pd.state == StateStarted
}
