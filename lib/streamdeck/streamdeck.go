package streamdeck

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"rafaelmartins.com/p/usbhid"
)

const (
	elgatoVendorID = 0x0fd9
	keyOffset      = 3
)

type Model struct {
	Name     string
	Keys     int
	KeyRows  int
	KeyCols  int
	KeySize  int
	FlipKeys bool
}

var ModelXL = Model{
	Name:     "XL",
	Keys:     32,
	KeyRows:  4,
	KeyCols:  8,
	KeySize:  96,
	FlipKeys: true,
}

var ModelPlus = Model{
	Name:    "Plus",
	Keys:    8,
	KeyRows: 2,
	KeyCols: 4,
	KeySize: 120,
}

var ModelMK2 = Model{
	Name:     "MK.2",
	Keys:     15,
	KeyRows:  3,
	KeyCols:  5,
	KeySize:  72,
	FlipKeys: true,
}

var productModels = map[uint16]*Model{
	0x006c: &ModelXL,
	0x008f: &ModelXL,
	0x0084: &ModelPlus,
	0x0080: &ModelMK2,
}

type Device struct {
	dev   *usbhid.Device
	model *Model
}

// Open opens the first attached Stream Deck of model m, or of any supported
// model when m is nil.
func Open(m *Model) (*Device, error) {
	devices, err := usbhid.Enumerate(func(dev *usbhid.Device) bool {
		if dev.VendorId() != elgatoVendorID {
			return false
		}
		pm := productModels[dev.ProductId()]
		return pm != nil && (m == nil || pm == m)
	})
	if err != nil {
		return nil, fmt.Errorf("streamdeck: enumerate: %w", err)
	}
	if len(devices) == 0 {
		if m != nil {
			return nil, fmt.Errorf("streamdeck: no %s device found", m.Name)
		}
		return nil, fmt.Errorf("streamdeck: no device found")
	}

	dev := devices[0]
	if err := dev.Open(true); err != nil {
		return nil, fmt.Errorf("streamdeck: open: %w", err)
	}
	return &Device{dev: dev, model: productModels[dev.ProductId()]}, nil
}

// ModelByName resolves a configured model name. The empty name means any.
func ModelByName(name string) (*Model, error) {
	switch strings.ToLower(name) {
	case "":
		return nil, nil
	case "xl":
		return &ModelXL, nil
	case "plus":
		return &ModelPlus, nil
	case "mk.2", "mk2":
		return &ModelMK2, nil
	}
	return nil, fmt.Errorf("streamdeck: unknown model %q", name)
}

func (d *Device) Model() *Model        { return d.model }
func (d *Device) Close() error         { return d.dev.Close() }
func (d *Device) SerialNumber() string { return d.dev.SerialNumber() }
func (d *Device) Product() string      { return d.dev.Product() }

func (d *Device) SetBrightness(perc byte) error {
	if perc > 100 {
		perc = 100
	}
	pl := make([]byte, d.dev.GetFeatureReportLength())
	pl[0] = 0x08
	pl[1] = perc
	return d.dev.SetFeatureReport(3, pl)
}

func (d *Device) SetKeyColor(key int, c color.Color) error {
	sz := d.model.KeySize
	img := image.NewRGBA(image.Rect(0, 0, sz, sz))
	xdraw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, xdraw.Src)
	return d.SetKeyImage(key, img)
}

func (d *Device) SetKeyImage(key int, img image.Image) error {
	if key < 0 || key >= d.model.Keys {
		return fmt.Errorf("streamdeck: invalid key %d", key)
	}

	sz := d.model.KeySize
	scaled := image.NewRGBA(image.Rect(0, 0, sz, sz))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	var src image.Image = scaled
	if d.model.FlipKeys {
		flipped := image.NewRGBA(scaled.Bounds())
		for y := 0; y < sz; y++ {
			for x := 0; x < sz; x++ {
				flipped.Set(sz-1-x, sz-1-y, scaled.At(x, y))
			}
		}
		src = flipped
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 100}); err != nil {
		return err
	}

	return d.sendKeyImage(byte(key), buf.Bytes())
}

func (d *Device) ClearKey(key int) error {
	return d.SetKeyColor(key, color.Black)
}

func (d *Device) ClearAllKeys() error {
	for i := 0; i < d.model.Keys; i++ {
		if err := d.ClearKey(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) sendKeyImage(key byte, imgData []byte) error {
	reportLen := d.dev.GetOutputReportLength()
	hdrLen := uint16(8)
	payloadLen := reportLen - hdrLen

	var page uint16
	for start := uint16(0); start < uint16(len(imgData)); page++ {
		end := start + payloadLen
		last := byte(0)
		if end >= uint16(len(imgData)) {
			end = uint16(len(imgData))
			last = 1
		}

		chunk := imgData[start:end]
		hdr := []byte{
			0x02,
			0x07,
			key,
			last,
			byte(len(chunk)),
			byte(len(chunk) >> 8),
			byte(page),
			byte(page >> 8),
		}

		payload := append(hdr, chunk...)
		padding := make([]byte, reportLen-uint16(len(payload)))
		payload = append(payload, padding...)

		if err := d.dev.SetOutputReport(2, payload); err != nil {
			return err
		}
		start = end
	}
	return nil
}

type KeyEvent struct {
	Key     int
	Pressed bool
	Time    time.Time
}

// ReadKeys sends a KeyEvent for every key state change until the device
// fails or is closed.
func (d *Device) ReadKeys(ch chan<- KeyEvent) error {
	states := make([]byte, d.model.Keys)
	for {
		_, buf, err := d.dev.GetInputReport()
		if err != nil {
			return err
		}
		if len(buf) < 4 || buf[0] != 0x00 {
			continue
		}
		t := time.Now()
		for i := 0; i < d.model.Keys && keyOffset+i < len(buf); i++ {
			st := buf[keyOffset+i]
			if st == states[i] {
				continue
			}
			states[i] = st
			ch <- KeyEvent{Key: i, Pressed: st > 0, Time: t}
		}
	}
}
