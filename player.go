// Package pianoseq compiles a compact two-hand piano notation into timed
// events and plays them back in real time. The Player facade wires the
// notation compiler, the dual-track scheduler, the additive tone engine and
// an optional MIDI output behind one mutex-guarded API.
package pianoseq

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pianoseq/pianoseq-go/internal/audio"
	"github.com/pianoseq/pianoseq-go/internal/fx"
	"github.com/pianoseq/pianoseq-go/internal/midiout"
	"github.com/pianoseq/pianoseq-go/internal/notation"
	"github.com/pianoseq/pianoseq-go/internal/scheduler"
	"github.com/pianoseq/pianoseq-go/internal/tone"
)

// ErrNothingToPlay is returned by Play when no events are loaded.
var ErrNothingToPlay = scheduler.ErrNothingToPlay

// manualVelocity is used for keys pressed by hand (mouse or MIDI echo).
const manualVelocity = 96

// PlaybackEvent is delivered on Watch channels.
type PlaybackEvent int

const (
	// PlaybackEnded fires once when both tracks have run out.
	PlaybackEnded PlaybackEvent = iota
)

type playerConfig struct {
	bpm        int
	reverb     bool
	audioOut   bool
	midiPort   int
	toneParams tone.Params
}

// PlayerOption configures NewPlayer.
type PlayerOption func(*playerConfig)

// WithBPM sets the initial tempo.
func WithBPM(bpm int) PlayerOption {
	return func(c *playerConfig) { c.bpm = bpm }
}

// WithReverb enables or disables the room reverb on the audio path.
func WithReverb(enabled bool) PlayerOption {
	return func(c *playerConfig) { c.reverb = enabled }
}

// WithoutAudioOutput builds a Player that never opens an audio device.
// Scheduling and MIDI output still work; useful for tests and dry runs.
func WithoutAudioOutput() PlayerOption {
	return func(c *playerConfig) { c.audioOut = false }
}

// WithMIDIPort mirrors every note transition to the MIDI output port at
// the given index (see MIDIPorts).
func WithMIDIPort(index int) PlayerOption {
	return func(c *playerConfig) { c.midiPort = index }
}

// WithToneParams overrides the synthesizer parameters.
func WithToneParams(p tone.Params) PlayerOption {
	return func(c *playerConfig) { c.toneParams = p }
}

// MIDIPorts lists the names of the available MIDI output ports.
func MIDIPorts() []string { return midiout.Ports() }

// Player owns one playback pipeline. All methods are safe for concurrent
// use.
type Player struct {
	mu         sync.Mutex
	cfg        playerConfig
	sampleRate int

	engine *tone.Engine
	out    *audio.Output
	midi   *midiout.Port

	tempo *scheduler.Tempo
	score *notation.Score
	sched *scheduler.Scheduler

	epoch    time.Time
	manual   map[int]struct{}
	watchers []chan PlaybackEvent
	closed   bool
}

// NewPlayer creates a Player rendering at sampleRate Hz.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	cfg := playerConfig{
		bpm:        scheduler.DefaultBPM,
		reverb:     true,
		audioOut:   true,
		midiPort:   -1,
		toneParams: tone.DefaultParams(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Player{
		cfg:        cfg,
		sampleRate: sampleRate,
		engine:     tone.New(sampleRate, cfg.toneParams),
		tempo:      scheduler.NewTempo(cfg.bpm),
		score:      &notation.Score{},
		epoch:      time.Now(),
		manual:     make(map[int]struct{}),
	}

	if cfg.audioOut {
		src := &renderSource{engine: p.engine}
		if cfg.reverb {
			src.reverb = fx.NewPianoRoom(sampleRate)
		}
		out, err := audio.NewOutput(sampleRate, src)
		if err != nil {
			return nil, err
		}
		p.out = out
		out.Play()
	}
	if cfg.midiPort >= 0 {
		port, err := midiout.Open(cfg.midiPort)
		if err != nil {
			if p.out != nil {
				p.out.Close()
			}
			return nil, err
		}
		p.midi = port
	}
	return p, nil
}

// renderSource pulls frames from the engine and runs them through the
// reverb. It lives entirely on the audio thread.
type renderSource struct {
	engine *tone.Engine
	reverb *fx.RoomReverb
}

func (s *renderSource) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		l, r := s.engine.RenderFrame()
		if s.reverb != nil {
			l, r = s.reverb.Process(l, r)
		}
		dst[i], dst[i+1] = l, r
	}
}

// Player implements scheduler.Sink; transitions fan out to the tone engine
// and the MIDI port.
func (p *Player) NoteOn(pitch int) {
	p.engine.NoteOn(pitch, manualVelocity)
	if p.midi != nil {
		p.midi.NoteOn(pitch)
	}
}

func (p *Player) NoteOff(pitch int) {
	p.engine.NoteOff(pitch)
	if p.midi != nil {
		p.midi.NoteOff(pitch)
	}
}

// LoadString compiles notation text and installs the result. On a compile
// error playback stops and an empty score is installed, so a bad file never
// leaves stale events behind.
func (p *Player) LoadString(text string) error {
	score, err := notation.Compile(text)
	p.mu.Lock()
	if p.sched != nil {
		p.sched.Stop()
		p.sched = nil
	}
	p.score = score
	p.mu.Unlock()
	return err
}

// LoadFile reads a notation file and compiles it.
func (p *Player) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.LoadString(string(data))
}

// EventCount returns the total number of loaded events across both hands.
func (p *Player) EventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score.EventCount()
}

// Play restarts playback from the top of the loaded score.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		p.sched.Stop()
	}
	sched := scheduler.NewWithOptions(p.score, p, p.tempo, scheduler.Options{
		OnEvent: p.onSchedulerEvent,
	})
	if err := sched.Start(p.nowMS()); err != nil {
		return err
	}
	p.sched = sched
	return nil
}

// Stop silences both tracks. Safe to call repeatedly.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		p.sched.Stop()
	}
}

// Advance moves playback to the current wall-clock time. Call it from the
// host loop every few milliseconds; cadence only bounds latency, never
// accuracy.
func (p *Player) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		p.sched.Tick(p.nowMS())
	}
}

func (p *Player) nowMS() int64 {
	return time.Since(p.epoch).Milliseconds()
}

// onSchedulerEvent runs inside Advance with the player lock held.
func (p *Player) onSchedulerEvent(k scheduler.EventKind) {
	if k != scheduler.EventPlaybackEnded {
		return
	}
	for _, ch := range p.watchers {
		select {
		case ch <- PlaybackEnded:
		default:
		}
	}
}

// Watch returns a channel delivering playback lifecycle events. Slow
// receivers drop events rather than stall the scheduler.
func (p *Player) Watch() <-chan PlaybackEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan PlaybackEvent, 4)
	p.watchers = append(p.watchers, ch)
	return ch
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched != nil && p.sched.Playing()
}

// SetBPM updates the tempo, clamped to the valid range. Events already
// scheduled keep their timing; the change applies from the next event on.
func (p *Player) SetBPM(bpm int) { p.tempo.Set(bpm) }

// AdjustBPM nudges the tempo by delta.
func (p *Player) AdjustBPM(delta int) { p.tempo.Set(p.tempo.BPM() + delta) }

func (p *Player) BPM() int { return p.tempo.BPM() }

// PressKey sounds a pitch by hand, outside the scheduler. Out-of-range
// pitches and repeated presses are ignored.
func (p *Player) PressKey(pitch int) {
	if pitch < 0 || pitch > 127 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, held := p.manual[pitch]; held {
		return
	}
	p.manual[pitch] = struct{}{}
	p.NoteOn(pitch)
}

// ReleaseKey releases a pitch pressed with PressKey.
func (p *Player) ReleaseKey(pitch int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, held := p.manual[pitch]; !held {
		return
	}
	delete(p.manual, pitch)
	p.NoteOff(pitch)
}

// ActivePitches returns every pitch currently sounding, scheduled or
// manual, ascending.
func (p *Player) ActivePitches() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[int]struct{}, len(p.manual))
	for pitch := range p.manual {
		seen[pitch] = struct{}{}
	}
	if p.sched != nil {
		for _, pitch := range p.sched.ActivePitches() {
			seen[pitch] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for pitch := range seen {
		out = append(out, pitch)
	}
	sort.Ints(out)
	return out
}

// Progress reports both hands' playback positions, left first.
func (p *Player) Progress() []scheduler.TrackProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		return p.sched.Progress()
	}
	return []scheduler.TrackProgress{
		{Label: notation.LabelLeft, Total: len(p.score.Left)},
		{Label: notation.LabelRight, Total: len(p.score.Right)},
	}
}

// SetMasterVolume scales output level, 0..1.
func (p *Player) SetMasterVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.engine.SetMasterGain(v * p.cfg.toneParams.MasterGain)
}

// MIDIPortName reports the connected MIDI output port, or "" when none.
func (p *Player) MIDIPortName() string {
	if p.midi == nil {
		return ""
	}
	return p.midi.Name()
}

// Close stops playback and releases the audio device and MIDI port.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.sched != nil {
		p.sched.Stop()
	}
	var err error
	if p.out != nil {
		err = p.out.Close()
	}
	if p.midi != nil {
		p.midi.Close()
	}
	return err
}
