package identity

import (
	"context"
	"errors"

	"contractpay/internal/authz"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/requestcontext"
)

// Resolver turns an authenticated user id into an authz.Caller.
type Resolver struct {
	directory Directory
}

func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve looks up the caller's profile. A user without a profile resolves to
// a caller with no talent profile and no admin role, which every guard
// rejects.
func (r *Resolver) Resolve(ctx context.Context, userID id.UserID) (authz.Caller, error) {
	if userID.IsNil() {
		return authz.Caller{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	profile, err := r.directory.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return authz.Caller{UserID: userID}, nil
		}
		return authz.Caller{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load caller profile")
	}
	return authz.Caller{
		UserID:   userID,
		TalentID: profile.TalentID,
		Admin:    profile.Role == ProfileAdmin,
	}, nil
}

// FromContext resolves the authenticated user carried by ctx.
func (r *Resolver) FromContext(ctx context.Context) (authz.Caller, error) {
	return r.Resolve(ctx, requestcontext.UserID(ctx))
}
