package notation

import (
	"fmt"
	"regexp"
	"strings"
)

var labelLine = regexp.MustCompile(`(?i)^([LR]):\s*(.*)$`)

// Compile turns whole-file notation text into a two-track score.
//
// Blank lines and lines starting with # are skipped. Lines prefixed L: or R:
// (any case) append to that hand, in line order. A file without any labeled
// line is treated as right hand only. Compilation is fail-safe at file
// granularity: any parse error yields an empty two-track score plus the
// error, so a broken file never half-plays.
func Compile(text string) (*Score, error) {
	var left, right, unlabeled []Event
	anyLabeled := false

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := labelLine.FindStringSubmatch(line); m != nil {
			anyLabeled = true
			events, err := ParseLine(m[2])
			if err != nil {
				return &Score{}, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if strings.EqualFold(m[1], string(LabelLeft)) {
				left = append(left, events...)
			} else {
				right = append(right, events...)
			}
			continue
		}
		events, err := ParseLine(line)
		if err != nil {
			return &Score{}, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		unlabeled = append(unlabeled, events...)
	}

	if anyLabeled {
		return &Score{Left: left, Right: right}, nil
	}
	return &Score{Right: unlabeled}, nil
}
