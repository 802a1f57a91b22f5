// Package identity is the read-only view of the collaborators this service
// does not own: user profiles, talent profiles and contracts.
package identity

import (
	id "contractpay/pkg/domain"
)

// ProfileRole is the platform-wide role on a user profile.
type ProfileRole string

const (
	ProfileMember ProfileRole = "member"
	ProfileAdmin  ProfileRole = "admin"
)

// Profile joins a user profile with its optional talent profile.
type Profile struct {
	UserID id.UserID
	Role   ProfileRole
	// TalentID is nil when the user has no talent profile.
	TalentID   id.TalentID
	AZEligible bool
}

// Contract binds a client (a user) to a talent profile.
type Contract struct {
	ID       id.ContractID
	ClientID id.UserID
	TalentID id.TalentID
	Title    string
}
