package internal

import (
	"testing"
	"time"
)

func TestNewSessionIDUniqueAndCanonical(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewSessionID()
		if err != nil {
			t.Fatalf("new session id: %v", err)
		}
		if _, err := ParseSessionID(id); err != nil {
			t.Fatalf("generated id %q not canonical: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestParseSessionIDRejectsNonCanonical(t *testing.T) {
	for _, in := range []string{"", "not-a-uuid", "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"} {
		if _, err := ParseSessionID(in); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestNewNonceDigits(t *testing.T) {
	nonce, err := NewNonce(0)
	if err != nil {
		t.Fatalf("new nonce: %v", err)
	}
	if len(nonce) != defaultNonceDigits {
		t.Fatalf("expected %d digits, got %q", defaultNonceDigits, nonce)
	}
	for _, c := range nonce {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit in nonce %q", nonce)
		}
	}

	if _, err := NewNonce(3); err == nil {
		t.Fatal("expected short nonce to be rejected")
	}
	if _, err := NewNonce(17); err == nil {
		t.Fatal("expected long nonce to be rejected")
	}
}

func TestClockTruncatesToSeconds(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 999_000_000, time.UTC)
	c := Clock(func() time.Time { return fixed })
	if got := c.Now(); !got.Equal(fixed.Truncate(time.Second)) {
		t.Fatalf("expected truncated time, got %v", got)
	}
	if c.Unix() != fixed.Unix() {
		t.Fatalf("unix mismatch: %d vs %d", c.Unix(), fixed.Unix())
	}

	var zero Clock
	if zero.Now().IsZero() {
		t.Fatal("nil clock must read wall time")
	}
}
