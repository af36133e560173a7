package notation

import (
	"fmt"
	"strings"
)

// SplitTokens splits one line of notation into tokens. Separators are
// whitespace, comma, semicolon and pipe, except inside a bracketed span,
// which stays one atomic token including its internal separators.
func SplitTokens(line string) ([]string, error) {
	tokens := make([]string, 0, 16)
	var current strings.Builder
	inBracket := false

	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			tokens = append(tokens, t)
		}
		current.Reset()
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '[':
			flush()
			inBracket = true
			current.WriteByte(ch)
		case ch == ']':
			inBracket = false
			current.WriteByte(ch)
			flush()
		case !inBracket && isSeparator(ch):
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	if inBracket {
		return nil, fmt.Errorf("%w: %q", ErrUnbalancedBracket, strings.TrimSpace(current.String()))
	}
	flush()
	return tokens, nil
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '\t', ',', ';', '|':
		return true
	}
	return false
}
