package ags

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy from spec §7. These are kinds, not
// class names: callers switch on Kind rather than type-asserting to a
// specific struct per failure mode.
type Kind int

const (
	// LockedSoundcard: another thread/process holds the device
	// exclusively, or the host API refused to open/activate.
	LockedSoundcard Kind = iota + 1

	// UnsupportedFormat: preset incompatible with the host. Always fatal
	// for the current session.
	UnsupportedFormat

	// BrokenConfiguration: the host accepted a format then failed to
	// initialize.
	BrokenConfiguration

	// DeviceInvalidated: transient host error during a block.
	DeviceInvalidated

	// ServiceNotRunning: transient host error during a block (daemon
	// backends).
	ServiceNotRunning

	// ParseError: clipboard XML failed its version/program check, or a
	// point's x/y was malformed.
	ParseError

	// OutOfRange: preset or parameter values outside published bounds.
	OutOfRange

	// PCMInfoUnavailable: pcm_info was asked about an unknown device.
	PCMInfoUnavailable
)

func (k Kind) String() string {
	switch k {
	case LockedSoundcard:
		return "LockedSoundcard"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case BrokenConfiguration:
		return "BrokenConfiguration"
	case DeviceInvalidated:
		return "DeviceInvalidated"
	case ServiceNotRunning:
		return "ServiceNotRunning"
	case ParseError:
		return "ParseError"
	case OutOfRange:
		return "OutOfRange"
	case PCMInfoUnavailable:
		return "PCMInfoUnavailable"
	default:
		return "Unknown"
	}
}

// SoundcardError is the error type returned by soundcard and automation
// operations. Wrap with fmt.Errorf("...: %w", err) and unwrap with
// errors.As to recover the Kind.
type SoundcardError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *SoundcardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *SoundcardError) Unwrap() error { return e.Err }

// IsKind reports whether err is, or wraps, a *SoundcardError of the given
// kind.
func IsKind(err error, kind Kind) bool {
	var se *SoundcardError
	return errors.As(err, &se) && se.Kind == kind
}
