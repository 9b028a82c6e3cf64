package models

import "time"

// Role is one of the closed set of application roles. The allow-list is
// enforced wherever a role set is written (admin role assignment) so that
// stored documents never carry unknown roles.
type Role string

const (
	RoleUser       Role = "user"
	RoleEditor     Role = "editor"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var validRoles = map[Role]struct{}{
	RoleUser:       {},
	RoleEditor:     {},
	RoleModerator:  {},
	RoleAdmin:      {},
	RoleSuperadmin: {},
}

// ParseRole returns the Role for s, reporting whether s names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := validRoles[r]
	return r, ok
}

// NormalizeRoles converts raw role names into a deduplicated Role slice,
// silently dropping values outside the allow-list. The result preserves
// first-seen order.
func NormalizeRoles(raw []string) []Role {
	seen := map[Role]struct{}{}
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		r, ok := ParseRole(s)
		if !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// User is the persisted account document, keyed by the identity provider's
// subject identifier. Profile fields are mirrored from the provider claims on
// every successful verification.
type User struct {
	UID         string    `bson:"_id" json:"uid"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string    `bson:"phone,omitempty" json:"phone,omitempty"`
	DisplayName string    `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhotoURL    string    `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Roles       []Role    `bson:"roles" json:"roles"`
	MFAEnrolled bool      `bson:"mfaEnrolled" json:"mfaEnrolled"`
	LastLoginAt time.Time `bson:"lastLoginAt" json:"lastLoginAt"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// HasRole reports whether the user's role set contains r.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// WithRole returns a copy of the user with r appended to the role set.
// The receiver is not modified; the stored document stays untouched.
func (u *User) WithRole(r Role) *User {
	cp := *u
	cp.Roles = make([]Role, 0, len(u.Roles)+1)
	cp.Roles = append(cp.Roles, u.Roles...)
	if !u.HasRole(r) {
		cp.Roles = append(cp.Roles, r)
	}
	return &cp
}
