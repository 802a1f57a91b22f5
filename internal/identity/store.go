package identity

import (
	"context"

	id "contractpay/pkg/domain"
)

// Directory looks up profiles and contracts. Lookups of a missing record
// return sentinel.ErrNotFound.
type Directory interface {
	ProfileByUserID(ctx context.Context, userID id.UserID) (*Profile, error)
	ProfileByTalentID(ctx context.Context, talentID id.TalentID) (*Profile, error)
	Contract(ctx context.Context, contractID id.ContractID) (*Contract, error)
	// ContractsForParty lists contracts where userID is the client or
	// talentID is the talent. A nil talentID matches only as client.
	ContractsForParty(ctx context.Context, userID id.UserID, talentID id.TalentID) ([]Contract, error)
}
