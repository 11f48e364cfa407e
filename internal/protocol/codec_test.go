package protocol

import (
	"bytes"
	"testing"
)

func TestScrambleRoundTrip(t *testing.T) {
	bodies := [][]byte{
		{18, 4},
		{18, 4, 1},
		{18, 4, 9, 12, 0, 254, 128, 255},
		bytes.Repeat([]byte{0x42}, 37),
	}
	for _, mul := range []byte{0, 1, 4, 6, 7, 12} {
		for _, body := range bodies {
			orig := make([]byte, len(body))
			copy(orig, body)
			data := make([]byte, len(body))
			copy(data, body)

			Scramble(data, mul)
			Unscramble(data, mul)
			if !bytes.Equal(data, orig) {
				t.Errorf("mul %d: round trip mismatch for %v: got %v", mul, orig, data)
			}
		}
	}
}

func TestScrambleChangesBody(t *testing.T) {
	data := []byte{18, 4, 9, 12, 3, 200, 17, 88}
	orig := make([]byte, len(data))
	copy(orig, data)
	Scramble(data, 6)
	if bytes.Equal(data, orig) {
		t.Error("scramble left body unchanged")
	}
}

func TestInterleave(t *testing.T) {
	data := []byte("abcde")
	interleave(data)
	if string(data) != "aebdc" {
		t.Fatalf("interleave = %q, want %q", data, "aebdc")
	}
	deinterleave(data)
	if string(data) != "abcde" {
		t.Fatalf("deinterleave = %q", data)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	body := []byte{byte(ActionRequest), byte(FamilyWalk), 5, 6, 7}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, body); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("frame body = %v, want %v", got, body)
	}
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	// Length digit bytes decoding to 0 are structurally broken.
	var buf bytes.Buffer
	buf.Write([]byte{0x01, 0xFE})
	if _, err := ReadFrame(&buf); err == nil {
		t.Error("expected invalid frame length error")
	}
}

// Chunked login body: account and pin terminated by breaks, the password
// raw to end of frame.
func TestChunkedStringDecode(t *testing.T) {
	w := NewWriter(ActionRequest, FamilyLogin)
	w.AddBreakString("bob")
	w.AddBreakString("1234")
	w.AddString("xyzzy")

	body := w.Bytes()
	tail := body[len(body)-14:]
	want := []byte{'b', 'o', 'b', 0xFF, '1', '2', '3', '4', 0xFF, 'x', 'y', 'z', 'z', 'y'}
	if !bytes.Equal(tail, want) {
		t.Fatalf("serialized tail = %v, want %v", tail, want)
	}

	r := NewReader(body)
	r.SetChunked(true)
	account := r.GetString()
	r.NextChunk()
	pin := r.GetString()
	r.NextChunk()
	r.SetChunked(false)
	password := r.GetString()

	if account != "bob" || pin != "1234" || password != "xyzzy" {
		t.Errorf("decoded %q %q %q", account, pin, password)
	}
}

func TestRawStringReadsToEnd(t *testing.T) {
	w := NewWriter(ActionReply, FamilyTalk)
	w.AddShort(7)
	w.AddString("hello world")
	r := NewReader(w.Bytes())
	if got := r.GetShort(); got != 7 {
		t.Fatalf("short = %d", got)
	}
	if got := r.GetString(); got != "hello world" {
		t.Errorf("string = %q", got)
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining = %d", r.Remaining())
	}
}

func TestWriterPrefix(t *testing.T) {
	w := NewWriter(ActionPlayer, FamilyConnection)
	b := w.Bytes()
	if Action(b[0]) != ActionPlayer || Family(b[1]) != FamilyConnection {
		t.Errorf("prefix = %v", b[:2])
	}
	r := NewReader(b)
	if r.Action() != ActionPlayer || r.Family() != FamilyConnection {
		t.Errorf("reader tags = %v.%v", r.Family(), r.Action())
	}
}
