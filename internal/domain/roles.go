package domain

import "strings"

// Role is a member of the closed role set.
type Role string

const (
	RoleStudent Role = "ROLE_STUDENT"
	RoleAdmin   Role = "ROLE_ADMIN"
)

// AllRoles lists every role the system knows about, in seed order.
var AllRoles = []Role{RoleStudent, RoleAdmin}

// Valid reports whether r belongs to the closed set.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// RoleSet is a user's role membership.
type RoleSet []Role

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	for _, role := range s {
		if role == r {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for Has(RoleAdmin).
func (s RoleSet) IsAdmin() bool {
	return s.Has(RoleAdmin)
}

// Strings returns role names in set order.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Claim renders the set as the comma-joined token claim.
func (s RoleSet) Claim() string {
	return strings.Join(s.Strings(), ",")
}

// ParseRoles reads a comma-joined claim. Unknown and duplicate names are dropped.
func ParseRoles(claim string) RoleSet {
	var out RoleSet
	for _, part := range strings.Split(claim, ",") {
		r := Role(strings.TrimSpace(part))
		if !r.Valid() || out.Has(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
