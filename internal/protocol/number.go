// Package protocol implements the Telgard wire format: base-253 pair-encoded
// integers, windows-1252 strings with optional 0xFF chunking, the per-session
// byte scramble, and length-prefixed framing.
package protocol

// Pair-encoding digit bases. A digit occupies one byte holding digit+1, so a
// byte never equals 0x00 and the values 0xFE (absent digit) and 0xFF (chunk
// break) stay out of the digit range.
const (
	CharMax  = 253
	ShortMax = CharMax * CharMax           // 64009
	ThreeMax = CharMax * CharMax * CharMax // 16194277
	IntMax   = CharMax * CharMax * CharMax * CharMax
)

const breakByte = 0xFF

// EncodeNumber encodes n into four little-endian base-253 digit bytes.
// Unused high digits are written as 0xFE.
func EncodeNumber(n int) [4]byte {
	if n < 0 {
		n = 0
	}
	out := [4]byte{0xFE, 0xFE, 0xFE, 0xFE}
	if n >= ThreeMax {
		out[3] = byte(n/ThreeMax + 1)
		n %= ThreeMax
	}
	if n >= ShortMax {
		out[2] = byte(n/ShortMax + 1)
		n %= ShortMax
	}
	if n >= CharMax {
		out[1] = byte(n/CharMax + 1)
		n %= CharMax
	}
	out[0] = byte(n + 1)
	return out
}

// DecodeNumber decodes up to four pair-encoded bytes. Bytes of 0xFE and 0x00
// both count as a zero digit; some clients emit either.
func DecodeNumber(b ...byte) int {
	result := 0
	mult := 1
	for i, v := range b {
		if i == 4 {
			break
		}
		if v == 0xFE || v == 0 {
			v = 1
		}
		result += int(v-1) * mult
		mult *= CharMax
	}
	return result
}

// EncodeChar encodes n as a single digit byte (range 0..252).
func EncodeChar(n int) byte {
	return EncodeNumber(n)[0]
}

// EncodeShort encodes n as two digit bytes (range 0..64008).
func EncodeShort(n int) [2]byte {
	e := EncodeNumber(n)
	return [2]byte{e[0], e[1]}
}

// EncodeThree encodes n as three digit bytes.
func EncodeThree(n int) [3]byte {
	e := EncodeNumber(n)
	return [3]byte{e[0], e[1], e[2]}
}
