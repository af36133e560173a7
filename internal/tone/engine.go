package tone

import (
	"math"
	"sync"
	"sync/atomic"
)

const twoPi = math.Pi * 2

type Params struct {
	Polyphony   int
	MasterGain  float64
	VelocityAmp float64
	SustainSec  float64 // time constant of the sustain-stage decay
}

func DefaultParams() Params {
	return Params{
		Polyphony:   32,
		MasterGain:  0.5,
		VelocityAmp: 0.8,
		SustainSec:  2.0,
	}
}

// baseHarmonics is the additive recipe: multiplier (with slight string
// inharmonicity) and relative amplitude.
var baseHarmonics = [...][2]float64{
	{1.0, 1.0},
	{2.01, 0.6},
	{3.02, 0.4},
	{4.03, 0.25},
	{5.04, 0.15},
	{6.05, 0.1},
	{7.06, 0.08},
	{8.07, 0.06},
	{9.08, 0.04},
	{10.09, 0.03},
	{11.1, 0.02},
	{12.11, 0.015},
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type partial struct {
	phase float64
	inc   float64
	amp   float64
}

type voice struct {
	active   bool
	note     int
	velocity float64
	partials []partial

	env        float64
	envState   envState
	attackInc  float64
	decayCoef  float64
	sustainLvl float64
	susCoef    float64
	relCoef    float64

	gainL float64
	gainR float64
}

// Engine is a polyphonic additive piano synthesizer. Tone character varies
// by register: bass notes get slower attacks, longer sustain and a darker
// spectrum; treble notes speak faster and carry extra brightness partials.
//
// NoteOn/NoteOff arrive from the UI or scheduler goroutine while the audio
// thread pulls RenderFrame, so voice state is guarded by a mutex.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	params     Params
	voices     []voice
	masterGain uint64
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 32
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Polyphony),
	}
	e.SetMasterGain(params.MasterGain)
	return e
}

func (e *Engine) SetMasterGain(gain float64) {
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) getMasterGain() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}

// NoteOn starts a voice for a MIDI note. velocity is 0..127.
func (e *Engine) NoteOn(note int, velocity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.allocVoice()
	freq := 440.0 * math.Pow(2, float64(note-69)/12.0)

	v.active = true
	v.note = note
	v.velocity = float64(velocity) / 127.0 * e.params.VelocityAmp
	v.partials = buildPartials(v.partials[:0], note, freq, e.sampleRate)

	// Register factor: 0 at A0, 1 at C8. Bass speaks slower and rings longer.
	register := clampF(float64(note-21)/87.0, 0, 1)
	attackSec := 0.003 + (1-register)*0.015
	decaySec := 0.1 + (1-register)*0.2
	releaseSec := 0.2 + (1-register)*0.8
	v.sustainLvl = 0.4 + (1-register)*0.2

	v.env = 0
	v.envState = envAttack
	v.attackInc = 1.0 / (attackSec * e.sampleRate)
	v.decayCoef = math.Exp(-3.0 / (decaySec * e.sampleRate))
	v.susCoef = math.Exp(-0.5 / (e.params.SustainSec * e.sampleRate))
	v.relCoef = math.Exp(-4.0 / (releaseSec * e.sampleRate))

	pan := clampF(0.5+float64(note-54)/108.0*0.3, 0, 1)
	v.gainL = 1 - pan
	v.gainR = pan
}

// NoteOff releases every voice sounding the note.
func (e *Engine) NoteOff(note int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.note == note && v.envState < envRelease {
			v.envState = envRelease
		}
	}
}

// RenderFrame produces one stereo frame.
func (e *Engine) RenderFrame() (float32, float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var l, r float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		sample := 0.0
		for k := range v.partials {
			p := &v.partials[k]
			sample += p.amp * math.Sin(p.phase)
			p.phase += p.inc
			if p.phase > twoPi*64 {
				p.phase -= twoPi * 64
			}
		}
		env := v.stepEnv()
		if v.envState == envOff {
			v.active = false
			continue
		}
		out := sample * env * v.velocity
		l += out * v.gainL
		r += out * v.gainR
	}
	gain := e.getMasterGain()
	return float32(l * gain), float32(r * gain)
}

// ActiveVoiceCount returns the number of voices still sounding, including
// release tails.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func (v *voice) stepEnv() float64 {
	switch v.envState {
	case envAttack:
		v.env += v.attackInc
		if v.env >= 1 {
			v.env = 1
			v.envState = envDecay
		}
		// Slightly curved attack, like a hammer strike.
		return math.Sqrt(v.env)
	case envDecay:
		v.env = v.sustainLvl + (v.env-v.sustainLvl)*v.decayCoef
		if v.env-v.sustainLvl < 0.005 {
			v.envState = envSustain
		}
	case envSustain:
		v.env *= v.susCoef
		if v.env < 0.0005 {
			v.envState = envOff
		}
	case envRelease:
		v.env *= v.relCoef
		if v.env < 0.0005 {
			v.envState = envOff
		}
	}
	return v.env
}

// allocVoice returns a free voice, stealing the quietest one when the pool
// is exhausted.
func (e *Engine) allocVoice() *voice {
	var steal *voice
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			return v
		}
		if steal == nil || v.env < steal.env {
			steal = v
		}
	}
	return steal
}

func buildPartials(dst []partial, note int, freq float64, sampleRate float64) []partial {
	nyquist := sampleRate / 2
	total := 0.0
	add := func(mul, amp float64) {
		if freq*mul >= nyquist {
			return
		}
		dst = append(dst, partial{
			inc: twoPi * freq * mul / sampleRate,
			amp: amp,
		})
		total += amp
	}
	for _, h := range baseHarmonics {
		add(h[0], h[1])
	}
	if note > 60 {
		brightness := float64(note-60) / 48.0
		add(13.12, 0.05*brightness)
		add(15.14, 0.03*brightness)
	}
	if total > 0 {
		norm := 0.8 / total
		for i := range dst {
			dst[i].amp *= norm
		}
	}
	return dst
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
