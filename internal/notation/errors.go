package notation

import "errors"

// Parse errors. Each is returned wrapped with the offending token (or line)
// so callers can both match with errors.Is and show a useful diagnostic.
var (
	ErrInvalidPitch         = errors.New("invalid pitch")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnbalancedBracket    = errors.New("unbalanced bracket")
	ErrMissingChordDuration = errors.New("chord note missing duration")
)
