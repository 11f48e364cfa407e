package persist

import (
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("bob", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash format: %q", hash)
	}
	if !VerifyPassword("bob", "hunter2", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("bob", "hunter3", hash) {
		t.Error("wrong password accepted")
	}
	// The username salts the key, so the same password under another
	// account does not verify.
	if VerifyPassword("alice", "hunter2", hash) {
		t.Error("hash verified for a different username")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("bob", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("bob", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of the same credentials are identical")
	}
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$notbase64!$xx",
		"$md5$v=19$m=65536,t=1,p=4$c2FsdA$a2V5",
	} {
		if VerifyPassword("bob", "hunter2", encoded) {
			t.Errorf("garbage hash %q verified", encoded)
		}
	}
}
