package permission

import (
	"errors"
	"sync"
)

// Policy classes stored on legacy user records.
const (
	PolicyClassAdmin      = 1
	PolicyClassPublicUser = 2
)

var (
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("policy registry frozen")
	// ErrUnknownPolicyClass is returned when a class id has no scope set.
	ErrUnknownPolicyClass = errors.New("unknown policy class")
)

// PolicyRegistry maps legacy policy class ids to scope sets. It is safe for
// concurrent use; lookups after Freeze take only a read lock.
type PolicyRegistry struct {
	mu      sync.RWMutex
	classes map[int]Scopes
	frozen  bool
}

// NewPolicyRegistry returns a registry with no classes.
func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{classes: make(map[int]Scopes)}
}

// DefaultPolicyRegistry returns a frozen registry holding the admin and
// public-user classes.
func DefaultPolicyRegistry() *PolicyRegistry {
	r := NewPolicyRegistry()
	_ = r.Register(PolicyClassAdmin, AdminUser)
	_ = r.Register(PolicyClassPublicUser, GeneralUser)
	r.Freeze()
	return r
}

// Register binds classID to scopes, replacing any earlier binding.
func (r *PolicyRegistry) Register(classID int, scopes Scopes) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if classID <= 0 {
		return errors.New("policy class id must be positive")
	}

	r.classes[classID] = NewScopes(scopes...)
	return nil
}

// Freeze prevents further registrations.
func (r *PolicyRegistry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Scopes returns a copy of the scope set for classID.
func (r *PolicyRegistry) Scopes(classID int) (Scopes, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scopes, ok := r.classes[classID]
	if !ok {
		return nil, ErrUnknownPolicyClass
	}
	return Scopes(scopes.Strings()), nil
}

// Count returns the number of registered classes.
func (r *PolicyRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}
