package protocol

import "golang.org/x/text/encoding/charmap"

// Writer builds a packet body. The first two bytes are always action and
// family; NewWriter seeds them so handlers only append fields.
type Writer struct {
	buf []byte
}

func NewWriter(action Action, family Family) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.buf = append(w.buf, byte(action), byte(family))
	return w
}

// NewRawWriter builds a body with no action/family prefix (sub-payloads).
func NewRawWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 32)}
}

// AddByte appends one raw byte.
func (w *Writer) AddByte(v byte) {
	w.buf = append(w.buf, v)
}

// AddChar appends a 1-byte pair-encoded integer (0..252).
func (w *Writer) AddChar(n int) {
	w.buf = append(w.buf, EncodeChar(n))
}

// AddShort appends a 2-byte pair-encoded integer (0..64008).
func (w *Writer) AddShort(n int) {
	e := EncodeShort(n)
	w.buf = append(w.buf, e[0], e[1])
}

// AddThree appends a 3-byte pair-encoded integer.
func (w *Writer) AddThree(n int) {
	e := EncodeThree(n)
	w.buf = append(w.buf, e[0], e[1], e[2])
}

// AddInt appends a 4-byte pair-encoded integer.
func (w *Writer) AddInt(n int) {
	e := EncodeNumber(n)
	w.buf = append(w.buf, e[:]...)
}

// AddString appends a raw string (no terminator), encoded as windows-1252.
func (w *Writer) AddString(s string) {
	w.buf = append(w.buf, encode1252(s)...)
}

// AddBreakString appends a string followed by the 0xFF chunk break.
func (w *Writer) AddBreakString(s string) {
	w.buf = append(w.buf, encode1252(s)...)
	w.buf = append(w.buf, breakByte)
}

// AddBreak appends a bare 0xFF chunk break.
func (w *Writer) AddBreak() {
	w.buf = append(w.buf, breakByte)
}

// AddBytes appends raw bytes.
func (w *Writer) AddBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the body including the action/family prefix.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func encode1252(s string) []byte {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return []byte(s)
	}
	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}
