package pianoseq

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pianoseq/pianoseq-go/internal/notation"
	"github.com/pianoseq/pianoseq-go/internal/scheduler"
	"github.com/pianoseq/pianoseq-go/internal/tone"
)

// Transition is one note boundary produced by an offline render.
type Transition struct {
	AtMS  int64
	On    bool
	Pitch int
}

// captureSink records transitions with the simulated clock's timestamp.
type captureSink struct {
	now         int64
	transitions []Transition
}

func (c *captureSink) NoteOn(pitch int) {
	c.transitions = append(c.transitions, Transition{AtMS: c.now, On: true, Pitch: pitch})
}

func (c *captureSink) NoteOff(pitch int) {
	c.transitions = append(c.transitions, Transition{AtMS: c.now, On: false, Pitch: pitch})
}

// RenderTransitions runs a compiled score against a simulated clock and
// returns every note boundary in order. Instead of polling, the clock jumps
// straight to each scheduler deadline, so the result is exact and
// independent of host speed.
func RenderTransitions(score *notation.Score, bpm int) ([]Transition, error) {
	sink := &captureSink{}
	sched := scheduler.New(score, sink, scheduler.NewTempo(bpm))
	if err := sched.Start(0); err != nil {
		return nil, err
	}

	var now int64
	limit := 4*score.EventCount() + 16
	for i := 0; sched.Playing() && i < limit; i++ {
		sink.now = now
		sched.Tick(now)
		next, ok := sched.NextDeadline()
		if !ok {
			break
		}
		if next <= now {
			now++
		} else {
			now = next
		}
	}
	sink.now = now
	sched.Stop()
	return sink.transitions, nil
}

// RenderTransitionsString compiles text and renders its transitions.
func RenderTransitionsString(text string, bpm int) ([]Transition, error) {
	score, err := notation.Compile(text)
	if err != nil {
		return nil, err
	}
	return RenderTransitions(score, bpm)
}

// RenderSamples synthesizes a score to interleaved stereo float32 at
// sampleRate, running the scheduler on a sample-count clock. Rendering
// continues past the last event until every release tail fades out, capped
// at ten minutes.
func RenderSamples(score *notation.Score, sampleRate, bpm int) ([]float32, error) {
	engine := tone.New(sampleRate, tone.DefaultParams())
	sched := scheduler.New(score, engineSink{engine}, scheduler.NewTempo(bpm))
	if err := sched.Start(0); err != nil {
		return nil, err
	}

	maxFrames := sampleRate * 600
	out := make([]float32, 0, sampleRate*4)
	for frame := 0; frame < maxFrames; frame++ {
		sched.Tick(int64(frame) * 1000 / int64(sampleRate))
		if !sched.Playing() && engine.ActiveVoiceCount() == 0 {
			break
		}
		l, r := engine.RenderFrame()
		out = append(out, l, r)
	}
	return out, nil
}

// RenderSamplesString compiles text and synthesizes it.
func RenderSamplesString(text string, sampleRate, bpm int) ([]float32, error) {
	score, err := notation.Compile(text)
	if err != nil {
		return nil, err
	}
	return RenderSamples(score, sampleRate, bpm)
}

type engineSink struct{ engine *tone.Engine }

func (s engineSink) NoteOn(pitch int)  { s.engine.NoteOn(pitch, manualVelocity) }
func (s engineSink) NoteOff(pitch int) { s.engine.NoteOff(pitch) }

// WriteWAV writes interleaved stereo float32 samples as a WAV file
// (format 3, IEEE float).
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	const (
		channels      = 2
		bitsPerSample = 32
	)
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * bitsPerSample / 8

	var header [58]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(50+dataSize))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 18)
	binary.LittleEndian.PutUint16(header[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(header[22:], channels)
	binary.LittleEndian.PutUint32(header[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:], bitsPerSample)
	binary.LittleEndian.PutUint16(header[36:], 0) // no extension
	copy(header[38:], "fact")
	binary.LittleEndian.PutUint32(header[42:], 4)
	binary.LittleEndian.PutUint32(header[46:], uint32(len(samples)/channels))
	copy(header[50:], "data")
	binary.LittleEndian.PutUint32(header[54:], uint32(dataSize))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	buf := make([]byte, 0, 4096)
	for _, s := range samples {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(s))
		buf = append(buf, b[:]...)
		if len(buf) >= 4096 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
