package protocol

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func body(family Family, action Action, payload ...byte) []byte {
	return append([]byte{byte(action), byte(family)}, payload...)
}

func TestDispatchStateGate(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	called := 0
	reg.Register(FamilyWalk, ActionPlayer, []SessionState{StatePlaying}, func(any, *Reader) {
		called++
	})

	data := body(FamilyWalk, ActionPlayer)
	if err := reg.Dispatch(nil, StatePlaying, data); err != nil {
		t.Fatal(err)
	}
	if called != 1 {
		t.Fatalf("handler called %d times, want 1", called)
	}

	for _, state := range []SessionState{StateUninitialized, StateInitialized, StateLoggedIn} {
		if err := reg.Dispatch(nil, state, data); err == nil {
			t.Errorf("state %s: no error for gated packet", state)
		}
	}
	if called != 1 {
		t.Errorf("gated dispatch still ran the handler, called %d", called)
	}
}

func TestDispatchUnknownPairDrops(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	if err := reg.Dispatch(nil, StatePlaying, body(FamilyWalk, ActionPlayer)); err != nil {
		t.Errorf("unknown pair returned %v, want silent drop", err)
	}
}

func TestDispatchTruncated(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	if err := reg.Dispatch(nil, StatePlaying, []byte{1}); err == nil {
		t.Error("one-byte packet dispatched without error")
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(FamilyItem, ActionUse, []SessionState{StatePlaying}, func(_ any, r *Reader) {
		r.GetInt() // reads past the empty payload
		panic("boom")
	})
	err := reg.Dispatch(nil, StatePlaying, body(FamilyItem, ActionUse))
	if err == nil {
		t.Fatal("handler panic not surfaced as error")
	}
}

func TestLimitOnlyAffectsRegisteredPairs(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(FamilyWalk, ActionPlayer, []SessionState{StatePlaying}, func(any, *Reader) {})

	reg.Limit(FamilyWalk, ActionPlayer, 30*time.Millisecond)
	reg.Limit(FamilyAttack, ActionUse, 250*time.Millisecond) // unregistered

	if got := reg.MinInterval(FamilyWalk, ActionPlayer); got != 30*time.Millisecond {
		t.Errorf("walk interval = %v", got)
	}
	if got := reg.MinInterval(FamilyAttack, ActionUse); got != 0 {
		t.Errorf("unregistered pair interval = %v, want 0", got)
	}
}

func TestSequencerCounterCycles(t *testing.T) {
	s := NewSequencer(100)
	for i := 0; i < 25; i++ {
		want := 100 + i%10
		if got := s.Next(); got != want {
			t.Fatalf("step %d: Next = %d, want %d", i, got, want)
		}
	}
	s.SetStart(40)
	// Counter position survives a start change.
	if got := s.Next(); got != 40+25%10 {
		t.Errorf("after SetStart Next = %d, want %d", got, 40+25%10)
	}
}
