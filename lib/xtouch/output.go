package xtouch

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type LCDColor uint8

const (
	ColorBlack   LCDColor = 0
	ColorRed     LCDColor = 1
	ColorGreen   LCDColor = 2
	ColorYellow  LCDColor = 3
	ColorBlue    LCDColor = 4
	ColorMagenta LCDColor = 5
	ColorCyan    LCDColor = 6
	ColorWhite   LCDColor = 7
)

type LEDState uint8

const (
	LEDOff   LEDState = 0
	LEDFlash LEDState = 64
	LEDOn    LEDState = 127
)

const lcdWidth = 7

type Output struct {
	send     func(msg midi.Message) error
	DeviceID uint8
}

func NewOutput(port drivers.Out, deviceID uint8) (*Output, error) {
	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output port: %w", err)
	}
	return &Output{send: send, DeviceID: deviceID}, nil
}

func (o *Output) SetButtonLED(button uint8, state LEDState) error {
	return o.send(midi.NoteOn(0, button, uint8(state)))
}

func (o *Output) SetLCD(lcd uint8, color LCDColor, upper string, lower string) error {
	return o.send(midi.SysEx(lcdSysEx(o.DeviceID, lcd, color, upper, lower)))
}

func lcdSysEx(deviceID, lcd uint8, color LCDColor, upper, lower string) []byte {
	data := []byte{0x00, 0x20, 0x32, deviceID, 0x4C, lcd, uint8(color)}
	data = append(data, []byte(padOrTruncate(upper, lcdWidth))...)
	data = append(data, []byte(padOrTruncate(lower, lcdWidth))...)
	return data
}

func padOrTruncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	for len(s) < n {
		s += " "
	}
	return s
}
