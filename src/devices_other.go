//go:build !linux

package ags

// ListCards on non-Linux platforms falls back to a single synthesized
// "default" device id/name pair; no host-API device enumeration is done
// (spec §4.1 list_cards).
func ListCards() (cardIDs []string, cardNames []string, err error) {
	return []string{FormatDeviceID("hostapi", 0)}, []string{"Default Device"}, nil
}
