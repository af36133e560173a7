package tone

import (
	"math"
	"testing"
)

const testRate = 48000

func renderEnergy(e *Engine, frames int) float64 {
	sum := 0.0
	for i := 0; i < frames; i++ {
		l, r := e.RenderFrame()
		sum += float64(l)*float64(l) + float64(r)*float64(r)
	}
	return sum
}

func TestSilentWhenIdle(t *testing.T) {
	e := New(testRate, DefaultParams())
	if got := renderEnergy(e, 1000); got != 0 {
		t.Fatalf("idle engine produced energy %v", got)
	}
}

func TestNoteOnProducesSound(t *testing.T) {
	e := New(testRate, DefaultParams())
	e.NoteOn(60, 96)
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("ActiveVoiceCount = %d", e.ActiveVoiceCount())
	}
	if got := renderEnergy(e, testRate/10); got <= 0 {
		t.Fatal("no output after NoteOn")
	}
}

func TestNoteOffFadesOut(t *testing.T) {
	e := New(testRate, DefaultParams())
	e.NoteOn(60, 96)
	renderEnergy(e, testRate/10)
	e.NoteOff(60)

	// Middle C releases in well under two seconds.
	renderEnergy(e, 2*testRate)
	if n := e.ActiveVoiceCount(); n != 0 {
		t.Fatalf("%d voices still active after release", n)
	}
	if got := renderEnergy(e, 100); got != 0 {
		t.Fatalf("released engine produced energy %v", got)
	}
}

func TestReleaseIsMonotonicallyQuieter(t *testing.T) {
	e := New(testRate, DefaultParams())
	e.NoteOn(60, 96)
	renderEnergy(e, testRate/10)
	e.NoteOff(60)

	early := renderEnergy(e, testRate/10)
	late := renderEnergy(e, testRate/10)
	if late >= early {
		t.Fatalf("release did not decay: early=%v late=%v", early, late)
	}
}

func TestVelocityScalesLevel(t *testing.T) {
	loud := New(testRate, DefaultParams())
	soft := New(testRate, DefaultParams())
	loud.NoteOn(60, 127)
	soft.NoteOn(60, 32)
	if l, s := renderEnergy(loud, testRate/10), renderEnergy(soft, testRate/10); l <= s {
		t.Fatalf("velocity ignored: loud=%v soft=%v", l, s)
	}
}

func TestMasterGainZeroSilences(t *testing.T) {
	e := New(testRate, DefaultParams())
	e.SetMasterGain(0)
	e.NoteOn(60, 127)
	if got := renderEnergy(e, 1000); got != 0 {
		t.Fatalf("muted engine produced energy %v", got)
	}
	// The voice still runs; raising the gain brings it back.
	e.SetMasterGain(0.5)
	if got := renderEnergy(e, 1000); got <= 0 {
		t.Fatal("unmuted engine stayed silent")
	}
}

func TestPolyphonyStealsInsteadOfGrowing(t *testing.T) {
	params := DefaultParams()
	params.Polyphony = 8
	e := New(testRate, params)
	for n := 40; n < 60; n++ {
		e.NoteOn(n, 96)
	}
	if got := e.ActiveVoiceCount(); got > 8 {
		t.Fatalf("ActiveVoiceCount = %d, want at most 8", got)
	}
}

func TestPanFollowsRegister(t *testing.T) {
	bass := New(testRate, DefaultParams())
	treble := New(testRate, DefaultParams())
	bass.NoteOn(24, 96)
	treble.NoteOn(100, 96)

	var bassL, bassR, trebleL, trebleR float64
	for i := 0; i < testRate/10; i++ {
		l, r := bass.RenderFrame()
		bassL += math.Abs(float64(l))
		bassR += math.Abs(float64(r))
		l, r = treble.RenderFrame()
		trebleL += math.Abs(float64(l))
		trebleR += math.Abs(float64(r))
	}
	if bassL <= bassR {
		t.Fatalf("bass should lean left: L=%v R=%v", bassL, bassR)
	}
	if trebleR <= trebleL {
		t.Fatalf("treble should lean right: L=%v R=%v", trebleL, trebleR)
	}
}

func TestHighNotesSkipAliasedPartials(t *testing.T) {
	e := New(testRate, DefaultParams())
	// C8's upper harmonics cross Nyquist and must be dropped, not wrapped.
	e.NoteOn(108, 127)
	peak := 0.0
	for i := 0; i < testRate/10; i++ {
		l, r := e.RenderFrame()
		if v := math.Abs(float64(l)) + math.Abs(float64(r)); v > peak {
			peak = v
		}
	}
	if peak <= 0 || peak > 2 {
		t.Fatalf("suspicious peak %v", peak)
	}
}
