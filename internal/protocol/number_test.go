package protocol

import "testing"

func TestNumberRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		width int
		max   int
	}{
		{"char", 1, CharMax - 1},
		{"short", 2, ShortMax - 1},
		{"three", 3, ThreeMax - 1},
		{"int", 4, IntMax - 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := []int{0, 1, 7, 252, 253, 254, 64008, 64009, tc.max}
			for _, v := range values {
				if v > tc.max {
					continue
				}
				enc := EncodeNumber(v)
				got := DecodeNumber(enc[:tc.width]...)
				if got != v {
					t.Errorf("width %d: decode(encode(%d)) = %d", tc.width, v, got)
				}
			}
		})
	}
}

func TestNumberDigitBytesAvoidReservedValues(t *testing.T) {
	// Digit bytes are digit+1, so 0x00 never appears and 0xFF stays free
	// for the chunk break. 0xFE marks an absent high digit only.
	for _, v := range []int{0, 252, 253, 64008, 64009, ThreeMax, IntMax - 1} {
		enc := EncodeNumber(v)
		for i, b := range enc {
			if b == 0x00 || b == 0xFF {
				t.Errorf("encode(%d)[%d] = %#x", v, i, b)
			}
		}
	}
}

func TestDecodeAbsentDigits(t *testing.T) {
	// 0xFE and the client quirk 0x00 both read as a zero digit.
	if got := DecodeNumber(0x02, 0xFE); got != 1 {
		t.Errorf("decode(0x02, 0xFE) = %d, want 1", got)
	}
	if got := DecodeNumber(0x02, 0x00); got != 1 {
		t.Errorf("decode(0x02, 0x00) = %d, want 1", got)
	}
}

func TestShortRange(t *testing.T) {
	enc := EncodeShort(64008)
	if got := DecodeNumber(enc[:]...); got != 64008 {
		t.Errorf("short max round trip = %d", got)
	}
}

func TestSequencerCycle(t *testing.T) {
	s := NewSequencer(140)
	seen := make([]int, 0, 12)
	for i := 0; i < 12; i++ {
		seen = append(seen, s.Next())
	}
	for i, v := range seen {
		want := 140 + i%10
		if v != want {
			t.Fatalf("Next()[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	for start := 0; start < 252; start++ {
		s1, s2 := ChallengeFor(start)
		if got := StartFromChallenge(s1, s2); got != start {
			t.Fatalf("challenge round trip for %d = %d (s1=%d s2=%d)", start, got, s1, s2)
		}
	}
}
