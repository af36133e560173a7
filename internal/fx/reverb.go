package fx

// RoomReverb is a small Schroeder reverb that gives the dry piano tone a
// sense of space. Each channel runs its own comb bank with slightly offset
// delay lengths so the tail decorrelates into stereo.
type RoomReverb struct {
	combsL   [4]comb
	combsR   [4]comb
	allpassL [2]allpass
	allpassR [2]allpass
	wet      float32
}

type comb struct {
	buf []float32
	pos int
	fb  float32
}

type allpass struct {
	buf []float32
	pos int
	fb  float32
}

// NewPianoRoom builds a reverb preset sized for a medium room.
func NewPianoRoom(sampleRate int) *RoomReverb {
	return NewRoomReverb(sampleRate, 0.45, 0.6, 0.18)
}

// NewRoomReverb creates a reverb. roomSize (0..1) controls delay lengths,
// feedback (0..1) decay time, wet the mix.
func NewRoomReverb(sampleRate int, roomSize, feedback, wet float32) *RoomReverb {
	base := int(float32(sampleRate) * roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clamp(feedback, 0, 0.95)
	r := &RoomReverb{wet: clamp(wet, 0, 1)}
	// Prime-ish length ratios avoid stacked resonances; the right bank is
	// nudged a few samples for stereo spread.
	lens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range r.combsL {
		r.combsL[i] = comb{buf: make([]float32, lens[i]), fb: fb}
		r.combsR[i] = comb{buf: make([]float32, lens[i]+i*7+5), fb: fb}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range r.allpassL {
		n := apLens[i]
		if n < 1 {
			n = 1
		}
		r.allpassL[i] = allpass{buf: make([]float32, n), fb: 0.5}
		r.allpassR[i] = allpass{buf: make([]float32, n+3), fb: 0.5}
	}
	return r
}

// Process runs one stereo frame through the reverb.
func (r *RoomReverb) Process(l, rr float32) (float32, float32) {
	mono := (l + rr) * 0.5
	var wetL, wetR float32
	for i := range r.combsL {
		wetL += r.combsL[i].process(mono)
		wetR += r.combsR[i].process(mono)
	}
	wetL *= 0.25
	wetR *= 0.25
	for i := range r.allpassL {
		wetL = r.allpassL[i].process(wetL)
		wetR = r.allpassR[i].process(wetR)
	}
	return l*(1-r.wet) + wetL*r.wet, rr*(1-r.wet) + wetR*r.wet
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpass) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
