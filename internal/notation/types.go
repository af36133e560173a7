package notation

// Kind identifies the event variants a track can carry.
type Kind int

const (
	KindRest Kind = iota + 1
	KindNote
	KindChord
	KindVariableChord
	KindTriplet
)

// Member is one pitch of a variable-duration chord.
type Member struct {
	Pitch int
	Beats float64
}

// Event is a tagged variant. The fields that are meaningful depend on Kind:
//
//	KindRest          Beats
//	KindNote          Pitches (one entry), Beats
//	KindChord         Pitches (deduplicated, ascending), Beats
//	KindVariableChord Members (each with its own Beats)
//	KindTriplet       Beats (the base unit; not sounded, scales what follows)
type Event struct {
	Kind    Kind
	Beats   float64
	Pitches []int
	Members []Member
}

// NominalBeats returns the unscaled beat length of a sounding event. For a
// variable-duration chord this is the longest member. Control events have no
// length.
func (e Event) NominalBeats() float64 {
	switch e.Kind {
	case KindVariableChord:
		max := 0.0
		for _, m := range e.Members {
			if m.Beats > max {
				max = m.Beats
			}
		}
		return max
	case KindTriplet:
		return 0
	default:
		return e.Beats
	}
}

// Label names one of the two hands.
type Label string

const (
	LabelLeft  Label = "L"
	LabelRight Label = "R"
)

// Score holds the compiled event sequence for each hand. Both tracks always
// exist; either may be empty.
type Score struct {
	Left  []Event
	Right []Event
}

// Empty reports whether neither hand has any events.
func (s *Score) Empty() bool {
	return s == nil || (len(s.Left) == 0 && len(s.Right) == 0)
}

// Track returns the event list for a label.
func (s *Score) Track(label Label) []Event {
	if label == LabelLeft {
		return s.Left
	}
	return s.Right
}

// EventCount returns the total number of events across both hands.
func (s *Score) EventCount() int {
	if s == nil {
		return 0
	}
	return len(s.Left) + len(s.Right)
}
