package ags

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the INI-style external configuration keys of spec §6.
// Structured as nested groups ("soundcard", "generic") the way the spec's
// flat "group/key" names imply, loaded from YAML (a teacher dependency)
// rather than a bespoke INI parser.
type Config struct {
	Soundcard SoundcardConfig `yaml:"soundcard"`
	Generic   GenericConfig   `yaml:"generic"`
}

// SoundcardConfig groups the soundcard/* keys of spec §6.
type SoundcardConfig struct {
	WasapiBufferSize int    `yaml:"wasapi-buffer-size"`
	WasapiShareMode  string `yaml:"wasapi-share-mode"` // "exclusive" or "shared"

	DSPChannels int `yaml:"dsp-channels"`
	PCMChannels int `yaml:"pcm-channels"`
	Samplerate  int `yaml:"samplerate"`
	BufferSize  int `yaml:"buffer-size"`
	Format      string `yaml:"format"`
}

// GenericConfig groups the generic/* keys of spec §6.
type GenericConfig struct {
	Segmentation string `yaml:"segmentation"`
}

// DefaultConfig returns the configuration defaults named in spec §6
// ("default 1024-equivalent" buffer size, shared WASAPI mode, 4/4
// segmentation).
func DefaultConfig() Config {
	return Config{
		Soundcard: SoundcardConfig{
			WasapiBufferSize: 1024,
			WasapiShareMode:  "shared",
			DSPChannels:      2,
			PCMChannels:      2,
			Samplerate:       44100,
			BufferSize:       1024,
			Format:           "S16",
		},
		Generic: GenericConfig{
			Segmentation: "4/4",
		},
	}
}

// LoadConfig reads a YAML config file, starting from DefaultConfig and
// overlaying whatever the file sets.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("reading config %q", path), Err: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("parsing config %q", path), Err: err}
	}

	return cfg, nil
}

// ShareMode parses the config's wasapi-share-mode string.
func (c SoundcardConfig) ShareMode() ShareMode {
	if c.WasapiShareMode == "exclusive" {
		return ShareModeExclusive
	}
	return ShareModeShared
}

// FormatValue parses the config's format string into a Format, defaulting
// to FormatS16 on an unrecognized value.
func (c SoundcardConfig) FormatValue() Format {
	switch c.Format {
	case "S8":
		return FormatS8
	case "S16":
		return FormatS16
	case "S24":
		return FormatS24
	case "S32":
		return FormatS32
	case "S64":
		return FormatS64
	case "FLOAT":
		return FormatFloat
	case "DOUBLE":
		return FormatDouble
	case "COMPLEX":
		return FormatComplex
	default:
		return FormatS16
	}
}

// Presets builds a Presets value from the config's soundcard group.
func (c SoundcardConfig) Presets() Presets {
	return Presets{
		Channels:   c.PCMChannels,
		Samplerate: c.Samplerate,
		BufferSize: c.BufferSize,
		Format:     c.FormatValue(),
	}
}
