// Package midiout forwards note transitions to a hardware or virtual MIDI
// output port.
package midiout

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

const (
	channel     = 0
	onVelocity  = 96
	offVelocity = 64
)

// Port sends note-on/off messages to one MIDI output port.
type Port struct {
	name string
	send func(midi.Message) error
}

// Ports lists the names of the available output ports.
func Ports() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// Open connects to the output port at index (0 is the first available).
func Open(index int) (*Port, error) {
	out, err := midi.OutPort(index)
	if err != nil {
		return nil, fmt.Errorf("midi out port %d: %w", index, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("midi out port %d: %w", index, err)
	}
	return &Port{name: out.String(), send: send}, nil
}

func (p *Port) Name() string { return p.name }

func (p *Port) NoteOn(pitch int) {
	// Send errors are swallowed: a yanked cable must not break playback.
	_ = p.send(midi.NoteOn(channel, uint8(pitch), onVelocity))
}

func (p *Port) NoteOff(pitch int) {
	_ = p.send(midi.NoteOffVelocity(channel, uint8(pitch), offVelocity))
}

// Close releases the driver and its ports.
func (p *Port) Close() {
	midi.CloseDriver()
}
