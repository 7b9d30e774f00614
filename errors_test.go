package goSession

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", ErrStoreUnavailable, true},
		{"wrapped unavailable", fmt.Errorf("%w: dial tcp", ErrStoreUnavailable), true},
		{"not found", ErrSessionNotFound, false},
		{"expired", ErrExpired, false},
		{"inconsistent", &WriteError{FailedStore: "distributed", Err: ErrStoreUnavailable, kind: ErrInconsistentWrite}, false},
		{"unavailable write", &WriteError{FailedStore: "legacy", Err: errors.New("conn reset"), kind: ErrStoreUnavailable}, true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("%s: IsRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWriteErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &WriteError{FailedStore: "distributed", RolledBack: true, Err: cause, kind: ErrInconsistentWrite}
	if !errors.Is(err, ErrInconsistentWrite) || !errors.Is(err, cause) {
		t.Fatalf("expected kind and cause in chain: %v", err)
	}

	bare := &WriteError{FailedStore: "legacy", kind: ErrStoreUnavailable}
	if !errors.Is(bare, ErrStoreUnavailable) {
		t.Fatal("expected kind without cause")
	}
}

func TestInvalidateError(t *testing.T) {
	err := &InvalidateError{
		SessionID: "sid",
		Failed: []StoreError{
			{Store: "legacy", Err: fmt.Errorf("%w: locked", ErrStoreUnavailable)},
		},
	}
	if !errors.Is(err, ErrSessionInvalidationFailed) || !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("unexpected chain: %v", err)
	}
	if got := err.Stores(); len(got) != 1 || got[0] != "legacy" {
		t.Fatalf("unexpected stores %v", got)
	}
}
