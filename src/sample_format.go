package ags

import (
	"fmt"
	"regexp"
	"strconv"
)

// Format is the sample format of a soundcard preset. The numeric values are
// preserved across the wire so engine-internal port values stay compatible
// (spec §6).
type Format uint8

const (
	FormatS8 Format = iota + 1
	FormatS16
	FormatS24 // physical container is 32-bit, see SizeOf.
	FormatS32
	FormatS64
	FormatFloat
	FormatDouble
	FormatComplex
)

func (f Format) String() string {
	switch f {
	case FormatS8:
		return "S8"
	case FormatS16:
		return "S16"
	case FormatS24:
		return "S24"
	case FormatS32:
		return "S32"
	case FormatS64:
		return "S64"
	case FormatFloat:
		return "FLOAT"
	case FormatDouble:
		return "DOUBLE"
	case FormatComplex:
		return "COMPLEX"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// SizeOf returns the number of bytes one sample of the format occupies in
// the ring buffer. S24 samples are carried in a 32-bit container (spec §3).
func SizeOf(f Format) (int, error) {
	switch f {
	case FormatS8:
		return 1, nil
	case FormatS16:
		return 2, nil
	case FormatS24:
		return 4, nil
	case FormatS32:
		return 4, nil
	case FormatFloat:
		return 4, nil
	case FormatS64:
		return 8, nil
	case FormatDouble:
		return 8, nil
	case FormatComplex:
		return 16, nil
	default:
		return 0, &SoundcardError{Kind: UnsupportedFormat, Msg: fmt.Sprintf("unsupported sample format %v", f)}
	}
}

// deviceIDPattern matches "ags-<backend>-devin-<N>" device identifier
// strings (spec §6).
var deviceIDPattern = regexp.MustCompile(`^ags-([a-z0-9]+)-devin-(\d+)$`)

// ParseDeviceID validates a device identifier string and returns its backend
// tag and numeric index. Per spec §6, a device name that doesn't start with
// the expected prefix is an error and leaves the device unchanged -- callers
// are expected to reject the new name and keep the old one.
func ParseDeviceID(id string) (backend string, index int, err error) {
	m := deviceIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", 0, &SoundcardError{Kind: OutOfRange, Msg: fmt.Sprintf("device id %q does not match ags-<backend>-devin-<N>", id)}
	}

	n, convErr := strconv.Atoi(m[2])
	if convErr != nil || n < 0 {
		return "", 0, &SoundcardError{Kind: OutOfRange, Msg: fmt.Sprintf("device id %q has an invalid index", id)}
	}

	return m[1], n, nil
}

// FormatDeviceID builds a device identifier string for the given backend tag
// and index, the inverse of ParseDeviceID.
func FormatDeviceID(backend string, index int) string {
	return fmt.Sprintf("ags-%s-devin-%d", backend, index)
}
