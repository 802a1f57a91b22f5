package memory

import (
	"github.com/google/uuid"

	"contractpay/internal/identity"
	id "contractpay/pkg/domain"
)

// Demo identifiers seeded for local runs. Stable so tokens minted with the
// token command keep working across restarts.
var (
	DemoAdminUserID  = id.UserID(uuid.MustParse("00000000-0000-4000-8000-000000000001"))
	DemoClientUserID = id.UserID(uuid.MustParse("00000000-0000-4000-8000-000000000002"))
	DemoTalentUserID = id.UserID(uuid.MustParse("00000000-0000-4000-8000-000000000003"))
	DemoTalentID     = id.TalentID(uuid.MustParse("00000000-0000-4000-8000-000000000103"))
	DemoContractID   = id.ContractID(uuid.MustParse("00000000-0000-4000-8000-000000000201"))
)

// SeedDemo loads one admin, one client and one AZ-eligible talent bound by a
// single contract.
func (d *Directory) SeedDemo() {
	d.PutProfile(identity.Profile{UserID: DemoAdminUserID, Role: identity.ProfileAdmin})
	d.PutProfile(identity.Profile{UserID: DemoClientUserID, Role: identity.ProfileMember})
	d.PutProfile(identity.Profile{
		UserID:     DemoTalentUserID,
		Role:       identity.ProfileMember,
		TalentID:   DemoTalentID,
		AZEligible: true,
	})
	d.PutContract(identity.Contract{
		ID:       DemoContractID,
		ClientID: DemoClientUserID,
		TalentID: DemoTalentID,
		Title:    "Demo engagement",
	})
}
