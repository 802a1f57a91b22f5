// Package authz decides which role a caller holds with respect to one
// contract-scoped record. It performs no I/O.
//
// Roles resolve in a fixed order: talent owner, contract client, admin. The
// first role that matches is the caller's effective role, so a talent who is
// also an admin still acts as the owner on their own logs and cannot approve
// their own work.
package authz

import (
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

// Role is a caller's relationship to a record.
type Role string

const (
	RoleTalent Role = "talent"
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Caller is an authenticated user resolved against the profile directory.
type Caller struct {
	UserID id.UserID
	// TalentID is nil when the user has no talent profile.
	TalentID id.TalentID
	Admin    bool
}

// HasTalentProfile reports whether the caller can own time logs.
func (c Caller) HasTalentProfile() bool { return !c.TalentID.IsNil() }

// Subject describes the record being acted on.
type Subject struct {
	OwnerTalentID id.TalentID
	ClientID      id.UserID
}

// Resolve returns every role caller holds on subject in resolution order.
func Resolve(caller Caller, subject Subject) []Role {
	var roles []Role
	if caller.HasTalentProfile() && caller.TalentID == subject.OwnerTalentID {
		roles = append(roles, RoleTalent)
	}
	if !caller.UserID.IsNil() && caller.UserID == subject.ClientID {
		roles = append(roles, RoleClient)
	}
	if caller.Admin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// Authorize returns the caller's effective role if it is one of required.
func Authorize(caller Caller, subject Subject, required ...Role) (Role, error) {
	roles := Resolve(caller, subject)
	if len(roles) == 0 {
		return "", dErrors.New(dErrors.CodeForbidden, "caller has no role on this record")
	}
	effective := roles[0]
	for _, r := range required {
		if r == effective {
			return effective, nil
		}
	}
	return effective, dErrors.New(dErrors.CodeForbidden, "role "+string(effective)+" is not permitted for this operation")
}

// RequireAdmin authorizes admin-only operations that have no record subject.
func RequireAdmin(caller Caller) error {
	if !caller.Admin {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}
