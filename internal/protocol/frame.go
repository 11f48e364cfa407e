package protocol

import (
	"fmt"
	"io"
)

// MaxFrameLen is the largest body a 2-byte pair-encoded length can carry.
const MaxFrameLen = ShortMax - 1

// ReadFrame reads one frame: two pair-encoded length bytes, then the body.
// The body is returned still scrambled; callers descramble per direction.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	length := DecodeNumber(header[0], header[1])
	if length < 2 || length > MaxFrameLen {
		return nil, fmt.Errorf("invalid frame length: %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body (%d bytes): %w", length, err)
	}
	return body, nil
}

// WriteFrame writes one frame to w.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameLen {
		return fmt.Errorf("frame too large: %d", len(body))
	}
	header := EncodeShort(len(body))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}
