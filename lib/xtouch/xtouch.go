package xtouch

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

const (
	DeviceIDXTouch   = 0x14
	DeviceIDExtender = 0x15
)

const (
	CCFootSwitch1 = 64
	CCFootSwitch2 = 67
	CCJogWheel    = 88
)

const (
	NoteButtonFirst = 0
	NoteButtonLast  = 103
)

type Event interface {
	String() string
}

type ButtonEvent struct {
	Button  uint8
	Pressed bool
}

func (e ButtonEvent) String() string {
	action := "released"
	if e.Pressed {
		action = "pressed"
	}
	return fmt.Sprintf("Button %d %s", e.Button, action)
}

type JogWheelEvent struct {
	Clockwise bool
}

func (e JogWheelEvent) String() string {
	if e.Clockwise {
		return "Jog wheel CW"
	}
	return "Jog wheel CCW"
}

type FootSwitchEvent struct {
	Switch  uint8
	Pressed bool
}

func (e FootSwitchEvent) String() string {
	action := "released"
	if e.Pressed {
		action = "pressed"
	}
	return fmt.Sprintf("Foot switch %d %s", e.Switch, action)
}

func FindInPort(substr string) (drivers.In, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matching %q", substr)
}

func FindOutPort(substr string) (drivers.Out, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", substr)
}

// Decode returns nil for messages the zone surface does not use.
func Decode(msg midi.Message) Event {
	var channel, key, value uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &value):
		return decodeButton(key, value)
	case msg.GetNoteOff(&channel, &key, &value):
		return decodeButton(key, 0)
	case msg.GetControlChange(&channel, &key, &value):
		return decodeCC(key, value)
	}
	return nil
}

func decodeButton(key, velocity uint8) Event {
	if key >= NoteButtonFirst && key <= NoteButtonLast {
		return ButtonEvent{Button: key, Pressed: velocity > 0}
	}
	return nil
}

func decodeCC(controller, value uint8) Event {
	switch controller {
	case CCJogWheel:
		return JogWheelEvent{Clockwise: value == 65}
	case CCFootSwitch1:
		return FootSwitchEvent{Switch: 1, Pressed: value > 0}
	case CCFootSwitch2:
		return FootSwitchEvent{Switch: 2, Pressed: value > 0}
	}
	return nil
}
