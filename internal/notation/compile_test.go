package notation

import (
	"strings"
	"testing"
)

func TestCompileLabeledTracks(t *testing.T) {
	score, err := Compile("L: C3:h G2:h\nR: C4:q D4:q E4:q")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(score.Left) != 2 || len(score.Right) != 3 {
		t.Fatalf("got L=%d R=%d", len(score.Left), len(score.Right))
	}
	if score.EventCount() != 5 {
		t.Fatalf("EventCount = %d", score.EventCount())
	}
}

func TestCompileLabelsCaseInsensitive(t *testing.T) {
	score, err := Compile("l: C3:q\nr: C4:q")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(score.Left) != 1 || len(score.Right) != 1 {
		t.Fatalf("got L=%d R=%d", len(score.Left), len(score.Right))
	}
}

func TestCompileRepeatedLabelsConcatenate(t *testing.T) {
	score, err := Compile("R: C4:q\nL: C3:q\nR: D4:q E4:q")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(score.Right) != 3 {
		t.Fatalf("Right = %d events, want 3 (lines concatenate)", len(score.Right))
	}
	if score.Right[0].Pitches[0] != 60 || score.Right[1].Pitches[0] != 62 {
		t.Fatalf("events out of order: %+v", score.Right)
	}
}

func TestCompileUnlabeledFileIsRightHand(t *testing.T) {
	score, err := Compile("C4:q D4:q\nE4:q")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(score.Left) != 0 || len(score.Right) != 3 {
		t.Fatalf("got L=%d R=%d", len(score.Left), len(score.Right))
	}
}

func TestCompileSkipsBlankAndComments(t *testing.T) {
	score, err := Compile("# header\n\n   \nR: C4:q\n# trailing")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if score.EventCount() != 1 {
		t.Fatalf("EventCount = %d, want 1", score.EventCount())
	}
}

func TestCompileErrorYieldsEmptyScore(t *testing.T) {
	score, err := Compile("R: C4:q\nR: bogus")
	if err == nil {
		t.Fatal("Compile should fail")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error %q should name the line", err)
	}
	if score == nil || !score.Empty() {
		t.Fatalf("a failed compile must install an empty score, got %+v", score)
	}
}

func TestCompileEmptyInput(t *testing.T) {
	score, err := Compile("")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !score.Empty() {
		t.Fatalf("got %+v, want empty", score)
	}
}

func TestScoreTrack(t *testing.T) {
	score, err := Compile("L: C3:q\nR: C4:q")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := score.Track(LabelLeft); len(got) != 1 || got[0].Pitches[0] != 48 {
		t.Fatalf("left track = %+v", got)
	}
	if got := score.Track(LabelRight); len(got) != 1 || got[0].Pitches[0] != 60 {
		t.Fatalf("right track = %+v", got)
	}
}

func BenchmarkCompile(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("L: ")
	for i := 0; i < 64; i++ {
		sb.WriteString("C3:q G2+D3:h rr [C3:q E3:h] triole:e C3:e D3:e E3:e ")
	}
	sb.WriteString("\nR: ")
	for i := 0; i < 64; i++ {
		sb.WriteString("C5:e E5:e G5:q C4+E4+G4:h rrr ")
	}
	text := sb.String()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(text); err != nil {
			b.Fatal(err)
		}
	}
}
