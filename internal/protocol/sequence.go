package protocol

// Sequencer tracks the per-session packet sequence. Every non-Init client
// packet carries one encoded char equal to start+counter; the counter cycles
// 0..9 so values stay inside char range. Ping advances the start to a
// server-chosen upcoming value once the pong confirms it.
type Sequencer struct {
	start   int
	counter int
}

func NewSequencer(start int) *Sequencer {
	return &Sequencer{start: start}
}

// Next returns the expected sequence value and advances the counter.
func (s *Sequencer) Next() int {
	v := s.start + s.counter
	s.counter = (s.counter + 1) % 10
	return v
}

// SetStart replaces the sequence start (pong accepted).
func (s *Sequencer) SetStart(start int) {
	s.start = start
}

func (s *Sequencer) Start() int {
	return s.start
}

// ChallengeFor splits a sequence start into the two handshake bytes. The
// first carries start/7 rounded up plus a fixed bias, the second the
// remainder, so the pair never collides with digit-range limits.
func ChallengeFor(start int) (byte, byte) {
	s1 := start/7 + 2
	s2 := start % 7
	return byte(s1), byte(s2)
}

// StartFromChallenge reverses ChallengeFor.
func StartFromChallenge(s1, s2 byte) int {
	return (int(s1)-2)*7 + int(s2)
}
