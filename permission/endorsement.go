package permission

import (
	"errors"
	"strconv"
	"strings"
)

// Wildcard matches any value in either field of an [Endorsement].
const Wildcard = "*"

// Category is an archive/subject classification such as astro-ph.CO.
type Category struct {
	Archive string
	Subject string
}

// ParseCategory splits a compound category ("astro-ph.CO"). A bare archive
// ("hep-th") yields an empty subject.
func ParseCategory(compound string) (Category, error) {
	if compound == "" {
		return Category{}, errors.New("empty category")
	}
	archive, subject, _ := strings.Cut(compound, ".")
	if archive == "" {
		return Category{}, errors.New("category archive missing")
	}
	return Category{Archive: archive, Subject: subject}, nil
}

func (c Category) String() string {
	if c.Subject == "" {
		return c.Archive
	}
	return c.Archive + "." + c.Subject
}

func (c Category) IsZero() bool {
	return c.Archive == "" && c.Subject == ""
}

// Endorsement grants submission rights for an archive/subject pair. Either
// field may be [Wildcard]. Advisory entries are carried for callers that want
// to surface them, but they never grant and never suppress a match.
type Endorsement struct {
	Archive  string
	Subject  string
	Advisory bool
}

// Endorse is shorthand for a granting entry.
func Endorse(archive, subject string) Endorsement {
	return Endorsement{Archive: archive, Subject: subject}
}

// Matches reports whether e covers archive/subject, ignoring the advisory flag.
func (e Endorsement) Matches(archive, subject string) bool {
	return fieldMatches(e.Archive, archive) && fieldMatches(e.Subject, subject)
}

func (e Endorsement) Category() Category {
	return Category{Archive: e.Archive, Subject: e.Subject}
}

func (e Endorsement) String() string {
	s := e.Archive + "." + e.Subject
	if e.Advisory {
		return "!" + s
	}
	return s
}

// ParseEndorsement reverses Endorsement.String.
func ParseEndorsement(s string) (Endorsement, error) {
	var e Endorsement
	if rest, ok := strings.CutPrefix(s, "!"); ok {
		e.Advisory = true
		s = rest
	}
	archive, subject, ok := strings.Cut(s, ".")
	if !ok || archive == "" || subject == "" {
		return Endorsement{}, errors.New("invalid endorsement " + strconv.Quote(s))
	}
	e.Archive, e.Subject = archive, subject
	return e, nil
}

func (e Endorsement) valid() bool {
	return e.Archive != "" && e.Subject != ""
}

func fieldMatches(pattern, value string) bool {
	return pattern == Wildcard || pattern == value
}

func compareEndorsements(a, b Endorsement) int {
	if c := strings.Compare(a.Archive, b.Archive); c != 0 {
		return c
	}
	if c := strings.Compare(a.Subject, b.Subject); c != 0 {
		return c
	}
	switch {
	case a.Advisory == b.Advisory:
		return 0
	case !a.Advisory:
		return -1
	default:
		return 1
	}
}
