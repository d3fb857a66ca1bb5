//go:build linux

package ags

import "github.com/jochenvg/go-udev"

// ListCards enumerates sound devices via udev (spec §4.1 list_cards),
// returning two parallel lists of UTF-8 strings: ags-style device ids and
// human-readable card names. Grounded directly on cm108.go's USB
// sound-card inventory scan, generalized from "find the HID sibling of
// this card" to "list every ALSA-class sound device".
func ListCards() (cardIDs []string, cardNames []string, err error) {
	u := udev.Udev{}
	enumerate := u.NewEnumerate()

	if err := enumerate.AddMatchSubsystem("sound"); err != nil {
		return nil, nil, &SoundcardError{Kind: PCMInfoUnavailable, Msg: "udev match failed", Err: err}
	}

	devices, err := enumerate.Devices()
	if err != nil {
		return nil, nil, &SoundcardError{Kind: PCMInfoUnavailable, Msg: "udev enumerate failed", Err: err}
	}

	index := 0
	for _, dev := range devices {
		if dev == nil {
			continue
		}

		name := dev.PropertyValue("ID_MODEL")
		if name == "" {
			name = dev.Sysname()
		}
		if name == "" {
			continue
		}

		cardIDs = append(cardIDs, FormatDeviceID("alsa", index))
		cardNames = append(cardNames, name)
		index++
	}

	return cardIDs, cardNames, nil
}
