package scheduler

import (
	"errors"
	"math"
	"sort"

	"github.com/pianoseq/pianoseq-go/internal/notation"
)

// Sink receives note transitions. Implementations render tone, forward to a
// MIDI port, or both; the scheduler only guarantees on/off call balance per
// pitch per playback session.
type Sink interface {
	NoteOn(pitch int)
	NoteOff(pitch int)
}

// EventKind identifies scheduler lifecycle events.
type EventKind int

const (
	EventPlaybackEnded EventKind = iota
)

type Options struct {
	OnEvent func(EventKind)
}

// ErrNothingToPlay is returned by Start when both tracks are empty.
var ErrNothingToPlay = errors.New("nothing to play")

// trackState is the playback cursor for one hand. sounding holds the
// pitches currently on; resting marks a rest occupying time, so the advance
// step does not re-enter before the rest expires.
type trackState struct {
	label            notation.Label
	events           []notation.Event
	cursor           int
	sounding         []int
	resting          bool
	nextOnMS         int64
	offMS            int64
	finished         bool
	tripletScale     float64
	tripletRemaining int
}

// Scheduler advances two independent tracks through wall-clock time,
// emitting note-on/off transitions to a sink. It is not safe for concurrent
// use; callers exposing it to multiple goroutines must serialize access.
type Scheduler struct {
	sink    Sink
	tempo   *Tempo
	left    trackState
	right   trackState
	active  map[int]struct{}
	playing bool
	onEvent func(EventKind)
}

func New(score *notation.Score, sink Sink, tempo *Tempo) *Scheduler {
	return NewWithOptions(score, sink, tempo, Options{})
}

func NewWithOptions(score *notation.Score, sink Sink, tempo *Tempo, opts Options) *Scheduler {
	if tempo == nil {
		tempo = NewTempo(DefaultBPM)
	}
	s := &Scheduler{
		sink:    sink,
		tempo:   tempo,
		active:  make(map[int]struct{}),
		onEvent: opts.OnEvent,
	}
	s.left = trackState{label: notation.LabelLeft, events: score.Left}
	s.right = trackState{label: notation.LabelRight, events: score.Right}
	return s
}

// Start resets both tracks to schedule immediately at now. It fails with
// ErrNothingToPlay when both tracks are empty.
func (s *Scheduler) Start(now int64) error {
	if len(s.left.events) == 0 && len(s.right.events) == 0 {
		return ErrNothingToPlay
	}
	s.resetTrack(&s.left, now)
	s.resetTrack(&s.right, now)
	clear(s.active)
	s.playing = true
	return nil
}

func (s *Scheduler) resetTrack(ts *trackState, now int64) {
	ts.cursor = -1
	ts.sounding = nil
	ts.resting = false
	ts.nextOnMS = now
	ts.offMS = 0
	ts.finished = false
	ts.tripletScale = 1.0
	ts.tripletRemaining = 0
}

// Tick advances playback to the wall-clock time now (milliseconds from a
// monotonic source). All timing derives from now, never from a call count,
// so an irregular call cadence does not accumulate drift.
//
// At most one sounding event is started per track per call, even when the
// elapsed time would span several events; a slow tick cadence therefore lags
// instead of bursting. This is a deliberate limitation.
func (s *Scheduler) Tick(now int64) {
	if !s.playing {
		return
	}
	s.tickTrack(&s.left, now)
	s.tickTrack(&s.right, now)
	if s.left.finished && s.right.finished {
		s.stop()
		if s.onEvent != nil {
			s.onEvent(EventPlaybackEnded)
		}
	}
}

func (s *Scheduler) tickTrack(ts *trackState, now int64) {
	if ts.finished {
		return
	}
	if len(ts.sounding) > 0 && now >= ts.offMS {
		for _, p := range ts.sounding {
			delete(s.active, p)
			s.sink.NoteOff(p)
		}
		ts.sounding = nil
	}
	if ts.resting && now >= ts.offMS {
		ts.resting = false
	}
	if len(ts.sounding) == 0 && !ts.resting && now >= ts.nextOnMS {
		s.advance(ts, now)
	}
}

// advance walks the cursor forward, consuming triplet directives in passing,
// until it schedules one sounding event or exhausts the track.
func (s *Scheduler) advance(ts *trackState, now int64) {
	for {
		ts.cursor++
		if ts.cursor >= len(ts.events) {
			ts.finished = true
			return
		}
		ev := ts.events[ts.cursor]
		if ev.Kind == notation.KindTriplet {
			ts.tripletScale, ts.tripletRemaining = tripletLookahead(ts.events, ts.cursor, ev.Beats)
			continue
		}
		s.dispatch(ts, ev, now)
		return
	}
}

// tripletLookahead inspects up to the next three non-control events and
// computes the scale compressing them into two base units.
func tripletLookahead(events []notation.Event, at int, baseUnit float64) (scale float64, count int) {
	total := 0.0
	for i := at + 1; i < len(events) && count < 3; i++ {
		if events[i].Kind == notation.KindTriplet {
			continue
		}
		total += events[i].NominalBeats()
		count++
	}
	if count == 0 || total <= 0 {
		return 1.0, 0
	}
	return (2.0 * baseUnit) / total, count
}

func (s *Scheduler) dispatch(ts *trackState, ev notation.Event, now int64) {
	msPerBeat := 60000.0 / float64(s.tempo.BPM())
	eff := func(beats float64) float64 {
		if ts.tripletRemaining > 0 {
			return beats * ts.tripletScale
		}
		return beats
	}

	var durMS int64
	switch ev.Kind {
	case notation.KindRest:
		durMS = roundMS(msPerBeat * eff(ev.Beats))
		ts.resting = true
	case notation.KindNote, notation.KindChord:
		durMS = roundMS(msPerBeat * eff(ev.Beats))
		ts.sounding = append([]int(nil), ev.Pitches...)
		for _, p := range ts.sounding {
			s.active[p] = struct{}{}
			s.sink.NoteOn(p)
		}
	case notation.KindVariableChord:
		// Members start together and release together at the longest
		// member's scaled end.
		maxBeats := 0.0
		pitches := make([]int, 0, len(ev.Members))
		for _, m := range ev.Members {
			if b := eff(m.Beats); b > maxBeats {
				maxBeats = b
			}
			pitches = append(pitches, m.Pitch)
		}
		durMS = roundMS(msPerBeat * maxBeats)
		ts.sounding = pitches
		for _, p := range pitches {
			s.active[p] = struct{}{}
			s.sink.NoteOn(p)
		}
	}
	ts.offMS = now + durMS
	ts.nextOnMS = ts.offMS

	if ts.tripletRemaining > 0 {
		ts.tripletRemaining--
		if ts.tripletRemaining == 0 {
			ts.tripletScale = 1.0
		}
	}
}

// Stop turns off everything still sounding (each pitch exactly once) and
// discards playback state. A second consecutive Stop emits nothing.
func (s *Scheduler) Stop() {
	s.stop()
}

func (s *Scheduler) stop() {
	for _, p := range s.ActivePitches() {
		s.sink.NoteOff(p)
	}
	clear(s.active)
	s.left.sounding = nil
	s.right.sounding = nil
	s.left.resting = false
	s.right.resting = false
	s.playing = false
}

func (s *Scheduler) Playing() bool { return s.playing }

// ActivePitches returns the pitches currently sounding, ascending.
func (s *Scheduler) ActivePitches() []int {
	out := make([]int, 0, len(s.active))
	for p := range s.active {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// NextDeadline returns the earliest pending on/off time across unfinished
// tracks. ok is false when playback is inactive or both tracks are done.
func (s *Scheduler) NextDeadline() (deadline int64, ok bool) {
	if !s.playing {
		return 0, false
	}
	for _, ts := range []*trackState{&s.left, &s.right} {
		if ts.finished {
			continue
		}
		d := ts.nextOnMS
		if len(ts.sounding) > 0 || ts.resting {
			d = ts.offMS
		}
		if !ok || d < deadline {
			deadline, ok = d, true
		}
	}
	return deadline, ok
}

// TrackProgress describes how far one hand has advanced.
type TrackProgress struct {
	Label    notation.Label
	Position int
	Total    int
}

// Progress reports both hands' cursors, left first.
func (s *Scheduler) Progress() []TrackProgress {
	return []TrackProgress{
		progressOf(&s.left),
		progressOf(&s.right),
	}
}

func progressOf(ts *trackState) TrackProgress {
	pos := ts.cursor + 1
	if pos > len(ts.events) {
		pos = len(ts.events)
	}
	if pos < 0 {
		pos = 0
	}
	return TrackProgress{Label: ts.label, Position: pos, Total: len(ts.events)}
}

func roundMS(ms float64) int64 {
	return int64(math.Round(ms))
}
