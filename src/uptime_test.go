package ags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "00:00:00.000", formatUptime(0))
	assert.Equal(t, "00:00:01.500", formatUptime(1.5))
	assert.Equal(t, "00:01:00.000", formatUptime(60))
	assert.Equal(t, "01:01:01.250", formatUptime(3661.25))
	assert.Equal(t, "00:00:00.000", formatUptime(-5), "negative elapsed time clamps to zero")
}
