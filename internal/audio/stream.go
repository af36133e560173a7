package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills dst with interleaved stereo float32 frames. It is
// pulled from the audio thread; implementations must not block.
type SampleSource interface {
	Process(dst []float32)
}

// streamReader adapts a SampleSource to the float32-LE byte stream the
// ebiten audio context expects.
type streamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *streamReader) Close() error { return nil }

// The process may hold only one audio context; every Output shares it.
var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Output streams a SampleSource to the system audio device.
type Output struct {
	player *ebitaudio.Player
	reader *streamReader
}

func NewOutput(sampleRate int, source SampleSource) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := &streamReader{source: source}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	// Keep the pull buffer short so key presses speak without audible lag.
	pl.SetBufferSize(50 * time.Millisecond)
	return &Output{player: pl, reader: reader}, nil
}

func (o *Output) Play()  { o.player.Play() }
func (o *Output) Pause() { o.player.Pause() }

// Position returns what the listener currently hears.
func (o *Output) Position() time.Duration { return o.player.Position() }

func (o *Output) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return err
	}
	return o.reader.Close()
}
