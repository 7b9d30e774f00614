package permission

import (
	"slices"
	"sort"
)

// Well-known scopes granted to interactive users.
const (
	ScopeProfileRead      = "profile:read"
	ScopeProfileUpdate    = "profile:update"
	ScopeSubmissionCreate = "submission:create"
	ScopeSubmissionUpdate = "submission:update"
	ScopeSubmissionRead   = "submission:read"
	ScopeSubmissionProxy  = "submission:proxy"
	ScopeUploadRead       = "upload:read"
	ScopeUploadWrite      = "upload:write"
)

var (
	// GeneralUser is the scope set of an ordinary registered user.
	GeneralUser = NewScopes(
		ScopeProfileUpdate,
		ScopeProfileRead,
		ScopeSubmissionCreate,
		ScopeSubmissionUpdate,
		ScopeSubmissionRead,
	)
	// AdminUser is the scope set of an administrator.
	AdminUser = NewScopes(
		ScopeProfileUpdate,
		ScopeProfileRead,
		ScopeSubmissionCreate,
		ScopeSubmissionUpdate,
		ScopeSubmissionRead,
		ScopeSubmissionProxy,
		ScopeUploadRead,
		ScopeUploadWrite,
	)
)

// Scopes is a set of opaque capability strings kept sorted and free of
// duplicates. The zero value is an empty set.
type Scopes []string

// NewScopes builds a normalized scope set. Empty strings are dropped.
func NewScopes(scopes ...string) Scopes {
	out := make(Scopes, 0, len(scopes))
	for _, s := range scopes {
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return Scopes(slices.Compact([]string(out)))
}

// Has reports whether required is granted. Comparison is exact and
// case-sensitive; "upload" does not grant "upload:read" or the reverse.
func (s Scopes) Has(required string) bool {
	if required == "" {
		return false
	}
	for _, granted := range s {
		if granted == required {
			return true
		}
	}
	return false
}

// Union returns the normalized union of s and other.
func (s Scopes) Union(other Scopes) Scopes {
	merged := make([]string, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return NewScopes(merged...)
}

// Strings returns a copy of the scope strings.
func (s Scopes) Strings() []string {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone([]string(s))
}
