package notation

import (
	"errors"
	"testing"
)

func TestResolveDurationUnits(t *testing.T) {
	cases := []struct {
		token string
		want  float64
	}{
		{"w", 4.0},
		{"h", 2.0},
		{"q", 1.0},
		{"e", 0.5},
		{"s", 0.25},
		{"Q", 1.0},
		{" h ", 2.0},
		{"0.3333", 0.3333},
		{"3", 3.0},
	}
	for _, c := range cases {
		got, err := ResolveDuration(c.token)
		if err != nil {
			t.Fatalf("ResolveDuration(%q) failed: %v", c.token, err)
		}
		if got != c.want {
			t.Fatalf("ResolveDuration(%q) = %v, want %v", c.token, got, c.want)
		}
	}
}

func TestResolveDurationRejects(t *testing.T) {
	for _, token := range []string{"", "0", "-1", "x", "qq", "1,5"} {
		_, err := ResolveDuration(token)
		if !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("ResolveDuration(%q) = %v, want ErrInvalidDuration", token, err)
		}
	}
}
