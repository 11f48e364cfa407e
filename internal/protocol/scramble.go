package protocol

// Body scramble. Each direction uses its own session multiple negotiated
// during the handshake; Init-family traffic is exchanged in the clear.
//
// Scramble   = interleave → flip MSB → swap multiple-runs
// Unscramble = swap multiple-runs → flip MSB → deinterleave
//
// The last two steps are their own inverse; deinterleave inverts the first.

// Scramble obfuscates a packet body in place with the given multiple.
func Scramble(data []byte, mul byte) {
	interleave(data)
	flipMSB(data)
	swapMultiples(data, mul)
}

// Unscramble reverses Scramble in place.
func Unscramble(data []byte, mul byte) {
	swapMultiples(data, mul)
	flipMSB(data)
	deinterleave(data)
}

// interleave spreads the first half of the body over the even offsets and
// the second half backwards over the odd offsets: "abcde" → "aebdc".
func interleave(data []byte) {
	tmp := make([]byte, len(data))
	ii := 0
	i := 0
	for ; i < len(data); i += 2 {
		tmp[i] = data[ii]
		ii++
	}
	i--
	if len(data)%2 != 0 {
		i -= 2
	}
	for ; i >= 0; i -= 2 {
		tmp[i] = data[ii]
		ii++
	}
	copy(data, tmp)
}

func deinterleave(data []byte) {
	tmp := make([]byte, len(data))
	ii := 0
	i := 0
	for ; i < len(data); i += 2 {
		tmp[ii] = data[i]
		ii++
	}
	i--
	if len(data)%2 != 0 {
		i -= 2
	}
	for ; i >= 0; i -= 2 {
		tmp[ii] = data[i]
		ii++
	}
	copy(data, tmp)
}

func flipMSB(data []byte) {
	for i := range data {
		data[i] ^= 0x80
	}
}

// swapMultiples reverses every run of 2+ consecutive bytes divisible by mul.
// Applying it twice restores the original, so it serves both directions.
func swapMultiples(data []byte, mul byte) {
	if mul == 0 {
		return
	}
	run := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i]%mul == 0 {
			run++
			continue
		}
		if run > 1 {
			for a, b := i-run, i-1; a < b; a, b = a+1, b-1 {
				data[a], data[b] = data[b], data[a]
			}
		}
		run = 0
	}
}
