package ags

// Constants ported from the AGS soundcard/scheduler specification.
// Mirrors of fixed, cross-package tuning values; nothing here is derived.

const (
	// DefaultPeriod is AGS_SOUNDCARD_DEFAULT_PERIOD: the number of distinct
	// delay[]/attack[] slots the time model keeps per bar.
	DefaultPeriod = 16

	// SixteenthsPerBar is how many note_256th_offset units make up one
	// note_offset unit (note_256th_offset == 16*note_offset + ...).
	SixteenthsPerBar = 16

	// MaximumSteps is the ceiling automation ports clamp to when a port is
	// exposed as "infinite range".
	MaximumSteps = 65535

	// DefaultPrecision is the step count used for ports that are neither
	// toggled nor integer-scaled.
	DefaultPrecision = 1000

	// DefaultOffset bounds a timestamp's "bucket" in offset mode: an
	// automation point belongs to timestamp ts if ts <= x < ts+DefaultOffset.
	DefaultOffset = 1024

	// MinSamplerate and MaxSamplerate bound Presets.Samplerate.
	MinSamplerate = 8000
	MaxSamplerate = 192000

	// MaxBufferSize bounds Presets.BufferSize; minimum is 1.
	MinBufferSize = 1
	MaxBufferSize = 44100

	// MaxChannels bounds Presets.Channels; minimum is 1.
	MinChannels = 1
	MaxChannels = 1024

	// PushDaemonGenerations is the ring-buffer generation count for
	// Variant A (push-daemon / JACK-like) backends.
	PushDaemonGenerations = 4

	// DeepPipelineGenerations is the ring-buffer generation count for
	// Variant B (polled-device) and Variant C (pull-host) backends.
	DeepPipelineGenerations = 8

	// ClipboardProgram, ClipboardType, ClipboardFormat and
	// ClipboardVersionCurrent/ClipboardVersionLegacy are the fixed
	// attributes of the automation clipboard XML fragment (spec §6).
	ClipboardProgram         = "ags"
	ClipboardType            = "clipboard/ags-automation"
	ClipboardFormat          = "ags-automation"
	ClipboardVersionCurrent  = "1.3.0"
	ClipboardVersionLegacy   = "0.4.3"
)

// Capability is a bitset drawn from {Playback, Capture, Duplex} (spec §6).
type Capability uint8

const (
	CapabilityPlayback Capability = 1 << iota
	CapabilityCapture
	CapabilityDuplex
)
