package permission

import "slices"

// Authorization is the set of rights granted within one session. It is
// attached to the session rather than the principal, so a restricted client
// token can carry less than its owner holds.
type Authorization struct {
	Classic      Privilege
	Scopes       Scopes
	Endorsements []Endorsement
}

// HasScope reports whether required is an exact member of the granted scopes.
func (a Authorization) HasScope(required string) bool {
	return a.Scopes.Has(required)
}

// EndorsedFor reports whether any non-advisory entry covers archive/subject.
// It never performs I/O.
func (a Authorization) EndorsedFor(archive, subject string) bool {
	for _, e := range a.Endorsements {
		if e.Advisory {
			continue
		}
		if e.Matches(archive, subject) {
			return true
		}
	}
	return false
}

// AdvisoryFor returns the advisory entries covering archive/subject.
func (a Authorization) AdvisoryFor(archive, subject string) []Endorsement {
	var out []Endorsement
	for _, e := range a.Endorsements {
		if e.Advisory && e.Matches(archive, subject) {
			out = append(out, e)
		}
	}
	return out
}

// Normalize sorts scopes and endorsements and drops duplicates and entries
// with an empty field, so two equal authorizations encode identically.
func (a Authorization) Normalize() Authorization {
	out := Authorization{
		Classic: a.Classic,
		Scopes:  NewScopes(a.Scopes...),
	}
	if len(out.Scopes) == 0 {
		out.Scopes = nil
	}

	if len(a.Endorsements) > 0 {
		entries := make([]Endorsement, 0, len(a.Endorsements))
		for _, e := range a.Endorsements {
			if e.valid() {
				entries = append(entries, e)
			}
		}
		slices.SortFunc(entries, compareEndorsements)
		entries = slices.Compact(entries)
		if len(entries) > 0 {
			out.Endorsements = entries
		}
	}

	return out
}

// Clone returns a deep copy.
func (a Authorization) Clone() Authorization {
	return Authorization{
		Classic:      a.Classic,
		Scopes:       slices.Clone(a.Scopes),
		Endorsements: slices.Clone(a.Endorsements),
	}
}

// Equal compares the normalized forms of a and b.
func (a Authorization) Equal(b Authorization) bool {
	na, nb := a.Normalize(), b.Normalize()
	return na.Classic == nb.Classic &&
		slices.Equal(na.Scopes, nb.Scopes) &&
		slices.Equal(na.Endorsements, nb.Endorsements)
}
