package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	pianoseq "github.com/pianoseq/pianoseq-go"
	"github.com/pianoseq/pianoseq-go/internal/notation"
)

const defaultSeq = `L: C3:h G2:h C3:w
R: C4:q E4:q G4:q C5:h rr triole:q C5:e B4:e G4:e [C4:q E4:h G4:w]`

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		seqPath    = flag.String("file", "", "path to a sequence file")
		seqInline  = flag.String("seq", "", "inline sequence string")
		bpm        = flag.Int("bpm", 120, "tempo in beats per minute (20..400)")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		midiPort   = flag.Int("midi", -1, "MIDI output port index (-1 = none)")
		listMIDI   = flag.Bool("list-midi", false, "list MIDI output ports and exit")
		dryRun     = flag.Bool("dry-run", false, "print the note transitions instead of playing")
		wavPath    = flag.String("wav", "", "render to a WAV file instead of playing")
		noReverb   = flag.Bool("no-reverb", false, "disable the room reverb")
	)
	flag.Parse()

	if *listMIDI {
		ports := pianoseq.MIDIPorts()
		if len(ports) == 0 {
			fmt.Println("no MIDI output ports")
			return
		}
		for i, name := range ports {
			fmt.Printf("%d: %s\n", i, name)
		}
		return
	}

	seqText, err := resolveSeqInput(*seqPath, *seqInline)
	if err != nil {
		log.Fatal(err)
	}

	if *dryRun {
		if err := printTransitions(seqText, *bpm); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *wavPath != "" {
		if err := renderWAV(seqText, *wavPath, *sampleRate, *bpm); err != nil {
			log.Fatal(err)
		}
		return
	}

	opts := []pianoseq.PlayerOption{
		pianoseq.WithBPM(*bpm),
		pianoseq.WithReverb(!*noReverb),
	}
	if *midiPort >= 0 {
		opts = append(opts, pianoseq.WithMIDIPort(*midiPort))
	}
	pl, err := pianoseq.NewPlayer(*sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()
	pl.SetMasterVolume(*volume)
	if name := pl.MIDIPortName(); name != "" {
		fmt.Printf("MIDI out: %s\n", name)
	}

	if err := pl.LoadString(seqText); err != nil {
		log.Fatal(err)
	}
	ch := pl.Watch()
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}

	// The scheduler is pull-based; tick it a few hundred times a second so
	// note boundaries land within a couple milliseconds of their deadline.
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pl.Advance()
		case <-ch:
			fmt.Println("playback completed")
			// Let the release tails ring out before the device closes.
			time.Sleep(1200 * time.Millisecond)
			return
		}
	}
}

func resolveSeqInput(path, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultSeq, nil
}

func printTransitions(seqText string, bpm int) error {
	trans, err := pianoseq.RenderTransitionsString(seqText, bpm)
	if err != nil {
		return err
	}
	for _, t := range trans {
		state := "off"
		if t.On {
			state = "on"
		}
		fmt.Printf("%8dms  %-3s %s (%d)\n", t.AtMS, state, notation.NoteName(t.Pitch), t.Pitch)
	}
	return nil
}

func renderWAV(seqText, path string, sampleRate, bpm int) error {
	score, err := notation.Compile(seqText)
	if err != nil {
		return err
	}
	samples, err := pianoseq.RenderSamples(score, sampleRate, bpm)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pianoseq.WriteWAV(f, samples, sampleRate); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%.1fs)\n", path, float64(len(samples)/2)/float64(sampleRate))
	return nil
}
