package scheduler

import "sync/atomic"

const (
	MinBPM     = 20
	MaxBPM     = 400
	DefaultBPM = 120
)

// Tempo is the shared beats-per-minute value. The host mutates it at any
// time; the scheduler only reads it, and a change never alters an already
// scheduled on/off time.
type Tempo struct {
	bpm atomic.Int64
}

func NewTempo(bpm int) *Tempo {
	t := &Tempo{}
	t.Set(bpm)
	return t
}

// Set stores bpm clamped to [MinBPM, MaxBPM].
func (t *Tempo) Set(bpm int) {
	if bpm < MinBPM {
		bpm = MinBPM
	}
	if bpm > MaxBPM {
		bpm = MaxBPM
	}
	t.bpm.Store(int64(bpm))
}

func (t *Tempo) BPM() int {
	v := t.bpm.Load()
	if v == 0 {
		return DefaultBPM
	}
	return int(v)
}
