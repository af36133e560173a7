package pianoseq

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func TestRenderTransitionsTiming(t *testing.T) {
	trans, err := RenderTransitionsString("R: C4:q D4:q", 120)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := []Transition{
		{AtMS: 0, On: true, Pitch: 60},
		{AtMS: 500, On: false, Pitch: 60},
		{AtMS: 500, On: true, Pitch: 62},
		{AtMS: 1000, On: false, Pitch: 62},
	}
	if !reflect.DeepEqual(trans, want) {
		t.Fatalf("got %v, want %v", trans, want)
	}
}

func TestRenderTransitionsBPMScales(t *testing.T) {
	trans, err := RenderTransitionsString("R: C4:q", 240)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(trans) != 2 || trans[1].AtMS != 250 {
		t.Fatalf("got %v, want off at 250ms", trans)
	}
}

func TestRenderTransitionsTriplet(t *testing.T) {
	trans, err := RenderTransitionsString("R: triole:q C5:e B4:e G4:e", 120)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	var ons []int64
	for _, tr := range trans {
		if tr.On {
			ons = append(ons, tr.AtMS)
		}
	}
	if !reflect.DeepEqual(ons, []int64{0, 333, 666}) {
		t.Fatalf("triplet onsets = %v", ons)
	}
	last := trans[len(trans)-1]
	if last.On || last.AtMS != 999 {
		t.Fatalf("last transition = %+v", last)
	}
}

func TestRenderTransitionsTwoHands(t *testing.T) {
	trans, err := RenderTransitionsString("L: C3:h\nR: C4:q D4:q", 120)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	// Both hands start at 0 and end at 1000.
	if trans[0].AtMS != 0 || trans[len(trans)-1].AtMS != 1000 {
		t.Fatalf("got %v", trans)
	}
	count := 0
	for _, tr := range trans {
		if tr.On {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("%d note-ons, want 3", count)
	}
}

func TestRenderTransitionsEmptyScore(t *testing.T) {
	_, err := RenderTransitionsString("# nothing here", 120)
	if !errors.Is(err, ErrNothingToPlay) {
		t.Fatalf("got %v, want ErrNothingToPlay", err)
	}
}

func TestRenderTransitionsCompileError(t *testing.T) {
	if _, err := RenderTransitionsString("R: bogus", 120); err == nil {
		t.Fatal("compile error should propagate")
	}
}

func TestRenderSamplesProducesAudio(t *testing.T) {
	samples, err := RenderSamplesString("R: C5:0.05", 8000, 400)
	if err != nil {
		t.Fatalf("RenderSamples failed: %v", err)
	}
	if len(samples) == 0 || len(samples)%2 != 0 {
		t.Fatalf("got %d samples", len(samples))
	}
	energy := 0.0
	for _, s := range samples {
		energy += float64(s) * float64(s)
	}
	if energy == 0 {
		t.Fatal("rendered silence")
	}
}

func TestWriteWAVHeader(t *testing.T) {
	var buf bytes.Buffer
	samples := []float32{0.5, -0.5, 0.25, -0.25}
	if err := WriteWAV(&buf, samples, 48000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	b := buf.Bytes()
	if len(b) != 58+len(samples)*4 {
		t.Fatalf("file size %d", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF header %q", b[:12])
	}
	if got := binary.LittleEndian.Uint16(b[20:]); got != 3 {
		t.Fatalf("format code %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint16(b[22:]); got != 2 {
		t.Fatalf("channels %d", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:]); got != 48000 {
		t.Fatalf("rate %d", got)
	}
	if got := binary.LittleEndian.Uint32(b[46:]); got != 2 {
		t.Fatalf("fact frame count %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(b[54:]); got != uint32(len(samples)*4) {
		t.Fatalf("data size %d", got)
	}
}
