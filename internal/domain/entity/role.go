// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleAdmin indicates a portal administrator.
	RoleAdmin Role = "admin"
	// RoleTeacher indicates a teaching staff member.
	RoleTeacher Role = "teacher"
	// RoleStudent indicates a regular student. New accounts default to this role.
	RoleStudent Role = "student"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// IsAllowed reports whether role is a member of the allowed set.
// It is the single predicate used for role-based authorization decisions.
func IsAllowed(role Role, allowed Roles) bool {
	return allowed.Contains(role)
}
