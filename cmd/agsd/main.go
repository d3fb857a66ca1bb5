// Command agsd is a minimal demo daemon driving one soundcard backend
// variant off a YAML config, to illustrate wiring Registry, TaskLauncher
// and the tick scheduler together. It is not a full sequencer front end.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	ags "github.com/gsequencer/gsequencer-sub021/src"
)

func main() {
	var configPath = pflag.StringP("config", "c", "", "Path to a YAML config file (defaults built in if omitted).")
	var variant = pflag.StringP("variant", "b", "polled", "Backend variant: push, polled, or pull.")
	var deviceID = pflag.StringP("device", "d", "", "Device id (defaults to the first device list_cards() reports).")
	var verbose = pflag.BoolP("verbose", "v", false, "Print full build info alongside the version banner.")
	var version = pflag.Bool("version", false, "Print version and exit.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - demo AGS soundcard daemon\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: %s [OPTIONS]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *version {
		ags.PrintVersion(*verbose)
		os.Exit(0)
	}

	cfg := ags.DefaultConfig()
	if *configPath != "" {
		loaded, err := ags.LoadConfig(*configPath)
		if err != nil {
			ags.Logger.Error("loading config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	id := *deviceID
	if id == "" {
		cardIDs, cardNames, err := ags.ListCards()
		if err != nil || len(cardIDs) == 0 {
			ags.Logger.Error("listing cards", "err", err)
			os.Exit(1)
		}
		id = cardIDs[0]
		ags.Logger.Info("defaulted device", "id", id, "name", cardNames[0])
	}

	presets := cfg.Soundcard.Presets()

	var sc ags.SoundcardContract
	var err error

	switch *variant {
	case "push":
		sc, err = ags.NewPushDaemonSoundcard(id, presets)
	case "pull":
		// The host-callback variant takes its block size from the
		// wasapi-buffer-size key rather than the generic preset.
		presets.BufferSize = cfg.Soundcard.WasapiBufferSize
		sc, err = ags.NewPullHostSoundcard(id, presets, cfg.Soundcard.ShareMode())
	default:
		sc, err = ags.NewPolledDeviceSoundcard(id, presets)
	}
	if err != nil {
		ags.Logger.Error("constructing soundcard", "variant", *variant, "err", err)
		os.Exit(1)
	}

	if f, err := ags.ParseSegmentation(cfg.Generic.Segmentation); err != nil {
		ags.Logger.Warn("invalid segmentation, keeping default delay factor", "segmentation", cfg.Generic.Segmentation, "err", err)
	} else {
		sc.SetDelayFactor(f)
	}

	registry := ags.NewRegistry()
	registry.Register(sc, id)
	defer registry.Unregister(id)

	if err := sc.PlayInit(); err != nil {
		ags.Logger.Error("play init", "err", err)
		os.Exit(1)
	}

	// The push-daemon handshake needs a server side acknowledging each
	// block; agsd stands in for the daemon's callback thread.
	if pd, ok := sc.(*ags.PushDaemonSoundcard); ok {
		go func() {
			for pd.WaitCallbackDone() {
				pd.SignalCallbackDone()
			}
		}()
	}

	// Audio thread: one Play per block until Stop flips the shutdown flag.
	go func() {
		for sc.IsAvailable() {
			if err := sc.Play(); err != nil {
				ags.Logger.Warn("play block", "err", err)
				return
			}
		}
	}()

	ags.Logger.Info("agsd running", "device", id, "variant", *variant, "presets", presets)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			ags.Logger.Info("shutting down", "uptime", sc.GetUptime())
			sc.Stop()
			registry.Drain()
			return
		case <-ticker.C:
			ags.Logger.Info("status", "uptime", sc.GetUptime(), "note_offset", sc.GetNoteOffset())
		}
	}
}
