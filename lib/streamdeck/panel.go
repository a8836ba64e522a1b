package streamdeck

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"arzone/lib/switchboard"
)

// Keypad is the part of a Device a Panel needs.
type Keypad interface {
	Model() *Model
	SetKeyText(key int, bg color.Color, fg color.Color, text string) error
	ReadKeys(ch chan<- KeyEvent) error
}

var (
	zoneIdle   = color.RGBA{30, 40, 70, 255}
	zoneActive = color.RGBA{50, 180, 50, 255}
	nextKey    = color.RGBA{220, 160, 30, 255}
)

// Panel puts one key per zone on the deck, highlights the active zone and
// uses the last key as NEXT.
type Panel struct {
	pad   Keypad
	names []string
	next  int
}

func NewPanel(pad Keypad, names []string) (*Panel, error) {
	keys := pad.Model().Keys
	if len(names)+1 > keys {
		return nil, fmt.Errorf("streamdeck: %d zones do not fit on %d keys", len(names), keys)
	}
	return &Panel{pad: pad, names: names, next: keys - 1}, nil
}

// Draw repaints every zone key and the NEXT key.
func (p *Panel) Draw(active int) error {
	for i, name := range p.names {
		bg := zoneIdle
		if i == active {
			bg = zoneActive
		}
		if err := p.pad.SetKeyText(i, bg, color.White, label(name)); err != nil {
			return err
		}
	}
	return p.pad.SetKeyText(p.next, nextKey, color.Black, "NEXT")
}

// EventFor maps a pressed key to a switchboard event.
func (p *Panel) EventFor(key int) (switchboard.Event, bool) {
	switch {
	case key == p.next:
		return switchboard.Advance{}, true
	case key >= 0 && key < len(p.names):
		return switchboard.Select{Index: key}, true
	}
	return nil, false
}

// Run forwards key presses as events until ctx is done or the keypad fails.
// The caller closes the device to stop the reader.
func (p *Panel) Run(ctx context.Context, out chan<- switchboard.Event) error {
	keys := make(chan KeyEvent)
	errc := make(chan error, 1)
	go func() { errc <- p.pad.ReadKeys(keys) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return fmt.Errorf("streamdeck: read keys: %w", err)
		case ev := <-keys:
			if !ev.Pressed {
				continue
			}
			sbev, ok := p.EventFor(ev.Key)
			if !ok {
				continue
			}
			select {
			case out <- sbev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// label splits "Zone - 1" style names over two lines.
func label(name string) string {
	if before, after, ok := strings.Cut(name, " - "); ok {
		return before + "\n" + after
	}
	return name
}
