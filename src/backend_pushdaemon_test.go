package ags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPushDaemon(t *testing.T) *PushDaemonSoundcard {
	t.Helper()
	pd, err := NewPushDaemonSoundcard(FormatDeviceID("jack", 0), Presets{
		Channels:   2,
		Samplerate: 44100,
		BufferSize: 512,
		Format:     FormatS16,
	})
	require.NoError(t, err)
	return pd
}

func TestPushDaemonHasFourGenerations(t *testing.T) {
	pd := newTestPushDaemon(t)
	assert.Equal(t, PushDaemonGenerations, pd.ringBuffer.Generations())
}

func TestPushDaemonInitIsIdempotentOnceStarted(t *testing.T) {
	pd := newTestPushDaemon(t)
	require.NoError(t, pd.PlayInit())
	require.NoError(t, pd.PlayInit())
	require.NoError(t, pd.RecordInit())
	assert.True(t, pd.IsAvailable())
}

func TestPushDaemonBlockCompletesWhenServerAcknowledges(t *testing.T) {
	pd := newTestPushDaemon(t)
	require.NoError(t, pd.PlayInit())

	// Stand in for the daemon's callback thread: acknowledge one block.
	go func() {
		time.Sleep(5 * time.Millisecond)
		pd.SignalCallbackDone()
	}()

	absBefore := pd.GetNoteOffsetAbsolute()
	require.NoError(t, pd.Play())
	assert.True(t, pd.IsPlaying())
	assert.GreaterOrEqual(t, pd.GetNoteOffsetAbsolute(), absBefore)
}

func TestPushDaemonHandshakeRunsServerThenProducer(t *testing.T) {
	pd := newTestPushDaemon(t)
	require.NoError(t, pd.PlayInit())

	served := make(chan int, 1)
	go func() {
		// Server callback loop: consume blocks until shutdown releases us.
		blocks := 0
		for pd.WaitCallbackDone() {
			blocks++
			pd.SignalCallbackDone()
		}
		served <- blocks
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, pd.Play())
	}
	pd.Stop()

	select {
	case blocks := <-served:
		assert.Equal(t, 3, blocks)
	case <-time.After(time.Second):
		t.Fatal("shutdown never released the server side of the handshake")
	}
}

func TestPushDaemonShutdownReleasesBlockedProducer(t *testing.T) {
	pd := newTestPushDaemon(t)
	require.NoError(t, pd.PlayInit())

	result := make(chan error, 1)
	go func() {
		result <- pd.Play()
	}()

	// Let the producer reach its CALLBACK_FINISH_DONE wait, then shut down.
	time.Sleep(10 * time.Millisecond)
	pd.Stop()

	select {
	case err := <-result:
		assert.Error(t, err, "a block interrupted by shutdown must not complete normally")
		assert.True(t, IsKind(err, ServiceNotRunning))
	case <-time.After(time.Second):
		t.Fatal("shutdown did not release the blocked producer")
	}
}

func TestPushDaemonNextBlockAfterShutdownPostsNoTasks(t *testing.T) {
	pd := newTestPushDaemon(t)
	require.NoError(t, pd.PlayInit())
	pd.Stop()

	absBefore := pd.GetNoteOffsetAbsolute()
	err := pd.Play()
	assert.Error(t, err)
	assert.True(t, IsKind(err, ServiceNotRunning))
	assert.Equal(t, absBefore, pd.GetNoteOffsetAbsolute(), "a post-shutdown block must not advance the scheduler")
	assert.False(t, pd.IsPlaying())
	assert.False(t, pd.IsRecording())
}

func TestPushDaemonStopForcesPassThrough(t *testing.T) {
	pd := newTestPushDaemon(t)
	require.NoError(t, pd.PlayInit())
	pd.Stop()

	pd.handshakeMu.Lock()
	flag := pd.flag
	pd.handshakeMu.Unlock()
	assert.True(t, flag.has(syncPassThrough))
	assert.False(t, pd.IsAvailable())
}

func TestPolledDeviceHasEightGenerationsAndPacesBlocks(t *testing.T) {
	pd, err := NewPolledDeviceSoundcard(FormatDeviceID("alsa", 1), Presets{
		Channels:   1,
		Samplerate: 44100,
		BufferSize: 64,
		Format:     FormatS16,
	})
	require.NoError(t, err)
	assert.Equal(t, DeepPipelineGenerations, pd.ringBuffer.Generations())

	require.NoError(t, pd.PlayInit())

	start := time.Now()
	require.NoError(t, pd.Play())
	require.NoError(t, pd.Play())
	elapsed := time.Since(start)

	// Two 64-frame blocks at 44.1 kHz pace at about 1.45 ms each; the
	// second block must have waited for at least one block period.
	assert.GreaterOrEqual(t, elapsed, time.Duration(float64(64)/44100*float64(time.Second)))
	assert.True(t, pd.IsPlaying())

	pd.Stop()
	err = pd.Play()
	assert.Error(t, err)
	assert.True(t, IsKind(err, DeviceInvalidated))
}
