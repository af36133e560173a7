package notation

import (
	"fmt"
	"strconv"
	"strings"
)

// pitchClasses follows standard sharp/flat spelling.
var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5,
	"F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10,
	"B": 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// restDurations maps the fixed single-token rest codes to beat lengths.
// Case matters: R is a whole rest, r a half.
var restDurations = map[string]float64{
	"R":    4.0,
	"r":    2.0,
	"rr":   1.0,
	"rrr":  0.5,
	"rrrr": 0.25,
}

// ResolvePitch maps a pitch token to a MIDI note number. rest reports that
// the token names a rest; then the pitch value is meaningless.
//
// Accepted forms: rest keywords ("r", "rest", any case) and the shorthand
// rest codes; a bare integer; letter notation like C4, F#3, Db-1 using
// midi = (octave+1)*12 + pitchClass. Values outside [0,127] are rejected,
// never clamped.
func ResolvePitch(token string) (pitch int, rest bool, err error) {
	t := strings.TrimSpace(token)
	switch strings.ToLower(t) {
	case "r", "rest":
		return 0, true, nil
	}
	if _, ok := restDurations[t]; ok {
		return 0, true, nil
	}
	if isInteger(t) {
		v, convErr := strconv.Atoi(t)
		if convErr != nil || v < 0 || v > 127 {
			return 0, false, fmt.Errorf("%w: MIDI note out of range: %q", ErrInvalidPitch, t)
		}
		return v, false, nil
	}
	if len(t) < 2 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidPitch, t)
	}
	var class, octaveStr string
	if len(t) >= 3 && (t[1] == '#' || t[1] == 'b') {
		class, octaveStr = t[:2], t[2:]
	} else {
		class, octaveStr = t[:1], t[1:]
	}
	pc, ok := pitchClasses[class]
	if !ok || !isInteger(octaveStr) {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidPitch, t)
	}
	octave, convErr := strconv.Atoi(octaveStr)
	if convErr != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidPitch, t)
	}
	midi := (octave+1)*12 + pc
	if midi < 0 || midi > 127 {
		return 0, false, fmt.Errorf("%w: %q resolves to %d", ErrInvalidPitch, t, midi)
	}
	return midi, false, nil
}

// NoteName returns the canonical sharp-spelled name of a MIDI note number,
// e.g. NoteName(60) == "C4".
func NoteName(pitch int) string {
	return fmt.Sprintf("%s%d", sharpNames[((pitch%12)+12)%12], pitch/12-1)
}

// IsBlackKey reports whether a MIDI note falls on a black piano key.
func IsBlackKey(pitch int) bool {
	switch ((pitch % 12) + 12) % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
