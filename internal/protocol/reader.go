package protocol

import "golang.org/x/text/encoding/charmap"

// Reader reads fields from a descrambled packet body. Bytes 0 and 1 are the
// action and family tags; the cursor starts past them.
//
// Chunked mode is a per-reader flag: while set, GetString stops before the
// next 0xFF break and NextChunk advances past it. While clear, GetString
// consumes the rest of the body.
type Reader struct {
	data    []byte
	off     int
	chunked bool
}

func NewReader(data []byte) *Reader {
	off := 2
	if len(data) < 2 {
		off = len(data)
	}
	return &Reader{data: data, off: off}
}

func (r *Reader) Action() Action {
	if len(r.data) == 0 {
		return 0
	}
	return Action(r.data[0])
}

func (r *Reader) Family() Family {
	if len(r.data) < 2 {
		return 0
	}
	return Family(r.data[1])
}

// GetByte reads one raw (non-encoded) byte.
func (r *Reader) GetByte() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// GetChar reads a 1-byte pair-encoded integer.
func (r *Reader) GetChar() int {
	return DecodeNumber(r.take(1)...)
}

// GetShort reads a 2-byte pair-encoded integer.
func (r *Reader) GetShort() int {
	return DecodeNumber(r.take(2)...)
}

// GetThree reads a 3-byte pair-encoded integer.
func (r *Reader) GetThree() int {
	return DecodeNumber(r.take(3)...)
}

// GetInt reads a 4-byte pair-encoded integer.
func (r *Reader) GetInt() int {
	return DecodeNumber(r.take(4)...)
}

func (r *Reader) take(n int) []byte {
	end := r.off + n
	if end > len(r.data) {
		end = len(r.data)
	}
	b := r.data[r.off:end]
	r.off = end
	return b
}

// GetString reads to end of body, or to the next break in chunked mode.
func (r *Reader) GetString() string {
	end := len(r.data)
	if r.chunked {
		for i := r.off; i < len(r.data); i++ {
			if r.data[i] == breakByte {
				end = i
				break
			}
		}
	}
	raw := r.data[r.off:end]
	r.off = end
	return decode1252(raw)
}

// GetFixedString reads exactly n bytes as a string.
func (r *Reader) GetFixedString(n int) string {
	return decode1252(r.take(n))
}

// GetBytes reads n raw bytes.
func (r *Reader) GetBytes(n int) []byte {
	b := r.take(n)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// SetChunked toggles chunked-string reading mode.
func (r *Reader) SetChunked(on bool) {
	r.chunked = on
}

// NextChunk consumes up to and including the next 0xFF break.
func (r *Reader) NextChunk() {
	for r.off < len(r.data) {
		b := r.data[r.off]
		r.off++
		if b == breakByte {
			return
		}
	}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// decode1252 converts windows-1252 bytes to UTF-8. ASCII passes through.
func decode1252(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	ascii := true
	for _, b := range raw {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
