package osc

import (
	"bytes"
	"io"
)

const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

func EncodeSLIP(data []byte) []byte {
	out := []byte{slipEnd}
	for _, b := range data {
		switch b {
		case slipEnd:
			out = append(out, slipEsc, slipEscEnd)
		case slipEsc:
			out = append(out, slipEsc, slipEscEsc)
		default:
			out = append(out, b)
		}
	}
	out = append(out, slipEnd)
	return out
}

func DecodeSLIP(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == slipEsc && i+1 < len(data) {
			switch data[i+1] {
			case slipEscEnd:
				out = append(out, slipEnd)
			case slipEscEsc:
				out = append(out, slipEsc)
			}
			i++
		} else {
			out = append(out, data[i])
		}
	}
	return out
}

// ExtractFrame returns the first complete frame in data and the bytes after
// it. Empty frames between back-to-back END bytes are skipped.
func ExtractFrame(data []byte) (frame []byte, rest []byte, ok bool) {
	start := -1
	for i, b := range data {
		if b != slipEnd {
			continue
		}
		if start == -1 || i == start+1 {
			start = i
			continue
		}
		return DecodeSLIP(data[start+1 : i]), data[i+1:], true
	}
	return nil, data, false
}

// Message frames and encodes one OSC message.
func Message(addr string, args ...any) []byte {
	return EncodeSLIP(Build(addr, args...))
}

// MaxFrameSize bounds the bytes ReadFrames holds while waiting for a frame
// to end.
const MaxFrameSize = 64 << 10

// ReadFrames calls fn for every SLIP frame read from r until r fails. Frames
// over MaxFrameSize are discarded, as are pending bytes past MaxFrameSize up
// to the next END byte. dropped, if non-nil, gets the number of bytes lost.
func ReadFrames(r io.Reader, dropped func(n int), fn func(frame []byte)) error {
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	skipping := false
	discarded := 0
	for {
		n, err := r.Read(tmp)
		if err != nil {
			return err
		}
		data := tmp[:n]
		if skipping {
			i := bytes.IndexByte(data, slipEnd)
			if i < 0 {
				discarded += n
				continue
			}
			discarded += i
			data = data[i:]
			skipping = false
			if dropped != nil {
				dropped(discarded)
			}
			discarded = 0
		}

		buf = append(buf, data...)
		for {
			frame, rest, ok := ExtractFrame(buf)
			if !ok {
				break
			}
			buf = rest
			if len(frame) > MaxFrameSize {
				if dropped != nil {
					dropped(len(frame))
				}
				continue
			}
			fn(frame)
		}

		if len(buf) > MaxFrameSize {
			// Keep a trailing partial frame if it still fits.
			i := bytes.LastIndexByte(buf, slipEnd)
			if i >= 0 && len(buf)-i <= MaxFrameSize {
				if dropped != nil {
					dropped(i)
				}
				buf = append(buf[:0], buf[i:]...)
				continue
			}
			discarded = len(buf)
			buf = buf[:0]
			skipping = true
		}
	}
}
