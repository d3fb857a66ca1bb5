package ags

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/strftime"
)

// formatUptime renders totalSeconds (time since transport start, derived
// from note_offset_absolute/bpm/delay/delay_factor, never wall-clock) as
// "HH:MM:SS.mmm" (spec §4.1 get_uptime). The HH:MM:SS portion goes through
// strftime the way tq.go formats its timestamped output; the millisecond
// remainder is appended separately since strftime has no portable
// sub-second specifier.
func formatUptime(totalSeconds float64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}

	whole := time.Duration(totalSeconds * float64(time.Second))
	millis := (whole % time.Second) / time.Millisecond

	// strftime operates on time.Time, so project the elapsed duration onto
	// the Unix epoch purely to borrow its %H:%M:%S formatting.
	t := time.Unix(0, 0).UTC().Add(whole)

	hms, err := strftime.Format("%H:%M:%S", t)
	if err != nil {
		hms = "00:00:00"
	}

	return fmt.Sprintf("%s.%03d", hms, millis)
}
