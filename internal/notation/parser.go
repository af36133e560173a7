package notation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var tripletToken = regexp.MustCompile(`(?i)^triole\s*:\s*([whqes])$`)

// ParseEvent turns one token into an event. Match order: triplet directive,
// shorthand rest, bracketed group, colon-delimited pitches:duration.
func ParseEvent(token string) (Event, error) {
	if m := tripletToken.FindStringSubmatch(token); m != nil {
		return Event{Kind: KindTriplet, Beats: durationUnits[strings.ToLower(m[1])]}, nil
	}
	if beats, ok := restDurations[token]; ok {
		return Event{Kind: KindRest, Beats: beats}, nil
	}
	if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
		return parseBracketGroup(token)
	}
	colon := strings.LastIndexByte(token, ':')
	if colon < 0 {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return parsePitchGroup(token[:colon], token[colon+1:])
}

// ParseLine tokenizes and parses one line's worth of events.
func ParseLine(line string) ([]Event, error) {
	tokens, err := SplitTokens(line)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(tokens))
	for _, tok := range tokens {
		ev, err := ParseEvent(tok)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// parseBracketGroup handles [pitch:dur pitch:dur ...]. Every entry must carry
// its own duration; rest entries are dropped. An emptied group degenerates to
// a half-beat rest (legacy fallback kept for input compatibility).
func parseBracketGroup(token string) (Event, error) {
	inner := strings.TrimSpace(token[1 : len(token)-1])
	items := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	members := make([]Member, 0, len(items))
	for _, item := range items {
		colon := strings.LastIndexByte(item, ':')
		if colon < 0 {
			return Event{}, fmt.Errorf("%w: %q", ErrMissingChordDuration, item)
		}
		pitch, rest, err := ResolvePitch(item[:colon])
		if err != nil {
			return Event{}, err
		}
		if rest {
			continue
		}
		beats, err := ResolveDuration(item[colon+1:])
		if err != nil {
			return Event{}, err
		}
		members = append(members, Member{Pitch: pitch, Beats: beats})
	}
	if len(members) == 0 {
		return Event{Kind: KindRest, Beats: 0.5}, nil
	}
	return Event{Kind: KindVariableChord, Members: members}, nil
}

// parsePitchGroup handles pitches:duration where pitches is a single pitch
// or a +-joined list sharing the one duration.
func parsePitchGroup(pitchPart, durPart string) (Event, error) {
	beats, err := ResolveDuration(durPart)
	if err != nil {
		return Event{}, err
	}
	seen := make(map[int]struct{}, 4)
	pitches := make([]int, 0, 4)
	for _, item := range strings.Split(pitchPart, "+") {
		if item == "" {
			continue
		}
		pitch, rest, err := ResolvePitch(item)
		if err != nil {
			return Event{}, err
		}
		if rest {
			continue
		}
		if _, dup := seen[pitch]; dup {
			continue
		}
		seen[pitch] = struct{}{}
		pitches = append(pitches, pitch)
	}
	sort.Ints(pitches)
	switch len(pitches) {
	case 0:
		return Event{Kind: KindRest, Beats: beats}, nil
	case 1:
		return Event{Kind: KindNote, Beats: beats, Pitches: pitches}, nil
	default:
		return Event{Kind: KindChord, Beats: beats, Pitches: pitches}, nil
	}
}
