package ags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPresets(t *testing.T) {
	cfg := DefaultConfig()

	p := cfg.Soundcard.Presets()
	assert.Equal(t, 2, p.Channels)
	assert.Equal(t, 44100, p.Samplerate)
	assert.Equal(t, 1024, p.BufferSize)
	assert.Equal(t, FormatS16, p.Format)

	assert.Equal(t, 1024, cfg.Soundcard.WasapiBufferSize)
	assert.Equal(t, ShareModeShared, cfg.Soundcard.ShareMode())
}

func TestLoadConfigOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
soundcard:
  wasapi-share-mode: exclusive
  buffer-size: 256
  format: FLOAT
generic:
  segmentation: "1/8"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ShareModeExclusive, cfg.Soundcard.ShareMode())
	assert.Equal(t, 256, cfg.Soundcard.BufferSize)
	assert.Equal(t, FormatFloat, cfg.Soundcard.FormatValue())
	assert.Equal(t, "1/8", cfg.Generic.Segmentation)
	// Untouched keys keep their defaults.
	assert.Equal(t, 44100, cfg.Soundcard.Samplerate)

	f, err := ParseSegmentation(cfg.Generic.Segmentation)
	require.NoError(t, err)
	assert.Equal(t, 1.0/8.0, f)
}

func TestLoadConfigMissingFileIsParseError(t *testing.T) {
	_, err := LoadConfig("/nonexistent/ags.yaml")
	assert.Error(t, err)
	assert.True(t, IsKind(err, ParseError))
}

func TestFormatValueFallsBackToS16(t *testing.T) {
	c := SoundcardConfig{Format: "PCM_MYSTERY"}
	assert.Equal(t, FormatS16, c.FormatValue())
}
