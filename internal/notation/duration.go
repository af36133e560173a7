package notation

import (
	"fmt"
	"strconv"
	"strings"
)

// durationUnits maps the symbolic length letters to beats (quarter = 1.0).
var durationUnits = map[string]float64{
	"w": 4.0,
	"h": 2.0,
	"q": 1.0,
	"e": 0.5,
	"s": 0.25,
}

// ResolveDuration maps a duration token to beats. It accepts the symbolic
// units w,h,q,e,s (any case) or a literal positive real number.
func ResolveDuration(token string) (float64, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if beats, ok := durationUnits[t]; ok {
		return beats, nil
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}
	return v, nil
}
