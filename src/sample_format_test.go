package ags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeOfCarriesS24InAThirtyTwoBitContainer(t *testing.T) {
	s24, err := SizeOf(FormatS24)
	require.NoError(t, err)
	s32, err := SizeOf(FormatS32)
	require.NoError(t, err)
	assert.Equal(t, s32, s24)
}

func TestSizeOfRejectsUnknownFormat(t *testing.T) {
	_, err := SizeOf(Format(0))
	assert.Error(t, err)
	assert.True(t, IsKind(err, UnsupportedFormat))
}

func TestFormatStringsMatchWireNames(t *testing.T) {
	for f, want := range map[Format]string{
		FormatS8:      "S8",
		FormatS16:     "S16",
		FormatS24:     "S24",
		FormatS32:     "S32",
		FormatS64:     "S64",
		FormatFloat:   "FLOAT",
		FormatDouble:  "DOUBLE",
		FormatComplex: "COMPLEX",
	} {
		assert.Equal(t, want, f.String())
	}
}

func TestParseDeviceIDRoundTrip(t *testing.T) {
	backend, index, err := ParseDeviceID("ags-gstreamer-devin-3")
	require.NoError(t, err)
	assert.Equal(t, "gstreamer", backend)
	assert.Equal(t, 3, index)

	assert.Equal(t, "ags-gstreamer-devin-3", FormatDeviceID("gstreamer", 3))
}

func TestParseDeviceIDRejectsForeignNames(t *testing.T) {
	for _, id := range []string{"", "hw:0,0", "ags-jack-devout-0", "ags-jack-devin-", "ags-jack-devin-x", "jack-devin-0"} {
		_, _, err := ParseDeviceID(id)
		assert.Error(t, err, "expected rejection for %q", id)
	}
}
