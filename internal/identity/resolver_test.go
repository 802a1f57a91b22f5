package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractpay/internal/identity"
	"contractpay/internal/identity/store/memory"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

func TestResolver(t *testing.T) {
	dir := memory.NewDirectory()
	dir.SeedDemo()
	r := identity.NewResolver(dir)
	ctx := context.Background()

	t.Run("talent caller carries talent profile", func(t *testing.T) {
		caller, err := r.Resolve(ctx, memory.DemoTalentUserID)
		require.NoError(t, err)
		assert.Equal(t, memory.DemoTalentID, caller.TalentID)
		assert.False(t, caller.Admin)
	})

	t.Run("admin flag from profile role", func(t *testing.T) {
		caller, err := r.Resolve(ctx, memory.DemoAdminUserID)
		require.NoError(t, err)
		assert.True(t, caller.Admin)
		assert.False(t, caller.HasTalentProfile())
	})

	t.Run("unknown user resolves without roles", func(t *testing.T) {
		stranger := id.UserID(uuid.New())
		caller, err := r.Resolve(ctx, stranger)
		require.NoError(t, err)
		assert.Equal(t, stranger, caller.UserID)
		assert.False(t, caller.Admin)
		assert.False(t, caller.HasTalentProfile())
	})

	t.Run("nil user is unauthorized", func(t *testing.T) {
		_, err := r.Resolve(ctx, id.UserID{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestMemoryDirectoryContractsForParty(t *testing.T) {
	dir := memory.NewDirectory()
	dir.SeedDemo()
	ctx := context.Background()

	asClient, err := dir.ContractsForParty(ctx, memory.DemoClientUserID, id.TalentID{})
	require.NoError(t, err)
	require.Len(t, asClient, 1)

	asTalent, err := dir.ContractsForParty(ctx, memory.DemoTalentUserID, memory.DemoTalentID)
	require.NoError(t, err)
	require.Len(t, asTalent, 1)

	none, err := dir.ContractsForParty(ctx, memory.DemoAdminUserID, id.TalentID{})
	require.NoError(t, err)
	assert.Empty(t, none)

	p, err := dir.ProfileByTalentID(ctx, memory.DemoTalentID)
	require.NoError(t, err)
	assert.True(t, p.AZEligible)
	assert.Equal(t, identity.ProfileMember, p.Role)
}
