package xtouch

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"arzone/lib/switchboard"
)

// Feedback is the part of an Output a Surface drives.
type Feedback interface {
	SetButtonLED(button uint8, state LEDState) error
	SetLCD(lcd uint8, color LCDColor, upper string, lower string) error
}

// Surface maps buttons 0..N-1 to zones. Foot switch 1 and the jog wheel
// turned clockwise advance to the next zone.
type Surface struct {
	out   Feedback
	names []string
}

func NewSurface(out Feedback, names []string) (*Surface, error) {
	if len(names) > NoteButtonLast-NoteButtonFirst+1 {
		return nil, fmt.Errorf("xtouch: %d zones exceed the button range", len(names))
	}
	return &Surface{out: out, names: names}, nil
}

func (s *Surface) EventFor(ev Event) (switchboard.Event, bool) {
	switch e := ev.(type) {
	case ButtonEvent:
		i := int(e.Button) - NoteButtonFirst
		if e.Pressed && i < len(s.names) {
			return switchboard.Select{Index: i}, true
		}
	case FootSwitchEvent:
		if e.Pressed && e.Switch == 1 {
			return switchboard.Advance{}, true
		}
	case JogWheelEvent:
		if e.Clockwise {
			return switchboard.Advance{}, true
		}
	}
	return nil, false
}

// Show lights the active zone's button and puts its name on the first LCD.
func (s *Surface) Show(active int) error {
	for i := range s.names {
		state := LEDOff
		if i == active {
			state = LEDOn
		}
		if err := s.out.SetButtonLED(uint8(NoteButtonFirst+i), state); err != nil {
			return err
		}
	}
	if active < 0 || active >= len(s.names) {
		return nil
	}
	return s.out.SetLCD(0, ColorGreen, fmt.Sprintf("Zone %d", active+1), s.names[active])
}

// Listen decodes messages from port and sends zone events to out. out is
// written from the MIDI driver's goroutine; events that do not fit are
// dropped so the driver never blocks on a stopped consumer.
func (s *Surface) Listen(port drivers.In, out chan<- switchboard.Event) (stop func(), err error) {
	return midi.ListenTo(port, func(msg midi.Message, timestampms int32) {
		s.forward(msg, out)
	})
}

// forward reports whether msg produced an event that was delivered to out.
func (s *Surface) forward(msg midi.Message, out chan<- switchboard.Event) bool {
	ev := Decode(msg)
	if ev == nil {
		return false
	}
	sbev, ok := s.EventFor(ev)
	if !ok {
		return false
	}
	select {
	case out <- sbev:
		return true
	default:
		return false
	}
}
