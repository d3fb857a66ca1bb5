package ags

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry()
	sc := newTestSoundcard(t)

	r.Register(sc, sc.DeviceID())

	got, ok := r.Lookup(sc.DeviceID())
	require.True(t, ok)
	assert.Same(t, sc, got)

	r.Unregister(sc.DeviceID())
	_, ok = r.Lookup(sc.DeviceID())
	assert.False(t, ok)
}

func TestRegistryDrainStopsEveryCard(t *testing.T) {
	r := NewRegistry()

	cards := make([]*PolledDeviceSoundcard, 0, 4)
	for i := 0; i < 4; i++ {
		sc, err := NewPolledDeviceSoundcard(FormatDeviceID("alsa", i), Presets{
			Channels: 1, Samplerate: 44100, BufferSize: 64, Format: FormatS16,
		})
		require.NoError(t, err)
		require.NoError(t, sc.PlayInit())
		r.Register(sc, sc.DeviceID())
		cards = append(cards, sc)
	}

	r.Drain()

	for _, sc := range cards {
		assert.False(t, sc.IsAvailable())
		_, ok := r.Lookup(sc.DeviceID())
		assert.False(t, ok)
	}
}

func TestRegistryIsSafeForConcurrentUse(t *testing.T) {
	r := NewRegistry()
	sc := newTestSoundcard(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("ags-alsa-devin-%d", i)
			r.Register(sc, id)
			r.Lookup(id)
			r.Unregister(id)
		}(i)
	}
	wg.Wait()
}
