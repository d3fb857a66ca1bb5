package ags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRingBufferCurrentNextPrevAtRest(t *testing.T) {
	rb, err := NewRingBuffer(PushDaemonGenerations, 2, 16, FormatS16, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, rb.CurrentIndex())
	assert.Same(t, &rb.Current()[0], &rb.frames[0][0])
	assert.Same(t, &rb.Next()[0], &rb.frames[1][0])
	assert.Same(t, &rb.Prev()[0], &rb.frames[PushDaemonGenerations-1][0])
}

func TestRingBufferSwitchBufferRotatesModuloGenerations(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		generations := rapid.IntRange(2, 8).Draw(rt, "generations")
		switches := rapid.IntRange(0, 32).Draw(rt, "switches")

		rb, err := NewRingBuffer(generations, 1, 4, FormatS16, 1)
		require.NoError(rt, err)

		for i := 0; i < switches; i++ {
			rb.SwitchBuffer()
		}

		assert.Equal(rt, switches%generations, rb.CurrentIndex())
	})
}

func TestRingBufferLockUnlockBufferIsNoopForForeignSlice(t *testing.T) {
	rb, err := NewRingBuffer(PushDaemonGenerations, 1, 4, FormatS16, 1)
	require.NoError(t, err)

	foreign := make([]byte, 4)
	assert.NotPanics(t, func() {
		rb.LockBuffer(foreign)
		rb.UnlockBuffer(foreign)
	})
}

func TestRingBufferClearCurrentZeroesOnlyCurrentGeneration(t *testing.T) {
	rb, err := NewRingBuffer(4, 1, 4, FormatS16, 1)
	require.NoError(t, err)

	for i := range rb.frames[0] {
		rb.frames[0][i] = 0xFF
	}
	for i := range rb.frames[1] {
		rb.frames[1][i] = 0xAA
	}

	rb.ClearCurrent()

	for _, b := range rb.Current() {
		assert.Equal(t, byte(0), b)
	}
	for _, b := range rb.frames[1] {
		assert.Equal(t, byte(0xAA), b)
	}
}

func TestRingBufferSetPresetsResetsIndexOnlyWhenRequested(t *testing.T) {
	rb, err := NewRingBuffer(4, 1, 4, FormatS16, 1)
	require.NoError(t, err)

	rb.SwitchBuffer()
	rb.SwitchBuffer()
	require.Equal(t, 2, rb.CurrentIndex())

	require.NoError(t, rb.SetPresets(2, 8, FormatS32, 1, false))
	assert.Equal(t, 2, rb.CurrentIndex())

	require.NoError(t, rb.SetPresets(2, 8, FormatS32, 1, true))
	assert.Equal(t, 0, rb.CurrentIndex())
}

func TestRingBufferSubBlockLocksAreIndependentPerChannel(t *testing.T) {
	rb, err := NewRingBuffer(2, 2, 4, FormatS16, 2)
	require.NoError(t, err)

	rb.LockSubBlock(0, 0, 0)
	assert.NotPanics(t, func() {
		rb.LockSubBlock(0, 0, 1)
		rb.UnlockSubBlock(0, 0, 1)
	})
	rb.UnlockSubBlock(0, 0, 0)
}
