package permission

import "strconv"

// Privilege is the classic-system privilege flag set. Bit values match the
// capability code the legacy cookie carries.
type Privilege uint64

const (
	// PrivilegeEditUsers allows administrative edits of user records.
	PrivilegeEditUsers Privilege = 1 << 1
	// PrivilegeEmailVerified marks a user whose email address is confirmed.
	PrivilegeEmailVerified Privilege = 1 << 2
	// PrivilegeEditSystem allows administrative edits of system settings.
	PrivilegeEditSystem Privilege = 1 << 3
)

// ComputeCapabilities builds the privilege set from the legacy user flags.
func ComputeCapabilities(editUsers, emailVerified, editSystem bool) Privilege {
	var p Privilege
	if editUsers {
		p.Set(PrivilegeEditUsers)
	}
	if emailVerified {
		p.Set(PrivilegeEmailVerified)
	}
	if editSystem {
		p.Set(PrivilegeEditSystem)
	}
	return p
}

// ParseCapabilities parses the decimal capability code used by the legacy cookie.
func ParseCapabilities(s string) (Privilege, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Privilege(v), nil
}

// Has reports whether every flag in flags is set.
func (p Privilege) Has(flags Privilege) bool {
	return p&flags == flags
}

func (p *Privilege) Set(flags Privilege) {
	*p |= flags
}

func (p *Privilege) Clear(flags Privilege) {
	*p &^= flags
}

func (p Privilege) Raw() uint64 {
	return uint64(p)
}

// Capabilities renders the privilege set as the decimal capability code.
func (p Privilege) Capabilities() string {
	return strconv.FormatUint(uint64(p), 10)
}
