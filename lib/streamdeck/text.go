package streamdeck

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextImage renders centered lines on a size x size square. Lines wider than
// the key are cut at the last rune that fits.
func TextImage(size int, bg color.Color, fg color.Color, lines ...string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()

	totalHeight := lineHeight * len(lines)
	startY := (size-totalHeight)/2 + metrics.Ascent.Ceil()

	for i, line := range lines {
		line = fit(face, line, size)
		width := font.MeasureString(face, line).Ceil()
		d := &font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{fg},
			Face: face,
			Dot:  fixed.P((size-width)/2, startY+i*lineHeight),
		}
		d.DrawString(line)
	}

	return img
}

func fit(face font.Face, s string, width int) string {
	for s != "" && font.MeasureString(face, s).Ceil() > width {
		r := []rune(s)
		s = string(r[:len(r)-1])
	}
	return s
}

func (d *Device) SetKeyText(key int, bg color.Color, fg color.Color, text string) error {
	lines := strings.Split(text, "\n")
	return d.SetKeyImage(key, TextImage(d.model.KeySize, bg, fg, lines...))
}
