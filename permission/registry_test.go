package permission

import (
	"errors"
	"testing"
)

func TestDefaultPolicyRegistry(t *testing.T) {
	r := DefaultPolicyRegistry()

	admin, err := r.Scopes(PolicyClassAdmin)
	if err != nil {
		t.Fatalf("admin scopes: %v", err)
	}
	if !admin.Has(ScopeUploadWrite) || !admin.Has(ScopeSubmissionProxy) {
		t.Fatalf("admin missing scopes: %v", admin)
	}

	public, err := r.Scopes(PolicyClassPublicUser)
	if err != nil {
		t.Fatalf("public scopes: %v", err)
	}
	if public.Has(ScopeSubmissionProxy) {
		t.Fatal("public user must not hold proxy scope")
	}
	if len(public) != len(GeneralUser) {
		t.Fatalf("expected %d scopes, got %d", len(GeneralUser), len(public))
	}

	if _, err := r.Scopes(99); !errors.Is(err, ErrUnknownPolicyClass) {
		t.Fatalf("expected ErrUnknownPolicyClass, got %v", err)
	}
	if err := r.Register(3, GeneralUser); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
}

func TestPolicyRegistryReturnsCopies(t *testing.T) {
	r := NewPolicyRegistry()
	if err := r.Register(7, NewScopes("a", "b")); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, _ := r.Scopes(7)
	got[0] = "mutated"

	again, _ := r.Scopes(7)
	if again[0] != "a" {
		t.Fatal("registry leaked internal slice")
	}
	if err := r.Register(0, nil); err == nil {
		t.Fatal("expected error for non-positive class id")
	}
}
