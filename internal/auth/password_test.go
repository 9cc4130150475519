package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
	if err := ps.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() should fail for the wrong password")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	// bcrypt silently truncates at 72 bytes; we reject instead.
	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("Hash() should reject passwords over 72 bytes")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	a, _ := ps.Hash("same password")
	b, _ := ps.Hash("same password")
	if a == b {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}
