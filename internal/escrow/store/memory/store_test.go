package memory

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractpay/internal/escrow/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
)

func TestFundAccumulates(t *testing.T) {
	store := New()
	ctx := context.Background()
	contract := id.ContractID(uuid.New())
	first := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	rec, err := store.Fund(ctx, contract, id.Cents(50000), first)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(50000), rec.Balance)
	assert.Equal(t, models.FundingFunded, rec.FundingStatus)

	rec, err = store.Fund(ctx, contract, id.Cents(20000), second)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(70000), rec.Balance)
	assert.Equal(t, id.Cents(70000), rec.Deposited)
	assert.Equal(t, first, rec.CreatedAt)
	assert.Equal(t, second, *rec.FundedAt)
}

func TestConcurrentFundingLosesNothing(t *testing.T) {
	store := New()
	contract := id.ContractID(uuid.New())
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Fund(context.Background(), contract, id.Cents(100), at)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := store.FindByContract(context.Background(), contract)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(5000), rec.Balance)
	assert.Equal(t, id.Cents(5000), rec.Deposited)
}

func TestDebit(t *testing.T) {
	store := New()
	ctx := context.Background()
	contract := id.ContractID(uuid.New())
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.Debit(ctx, contract, id.Cents(1), at)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.Fund(ctx, contract, id.Cents(1000), at)
	require.NoError(t, err)

	_, err = store.Debit(ctx, contract, id.Cents(1001), at)
	assert.ErrorIs(t, err, sentinel.ErrInsufficientFunds)

	rec, err := store.Debit(ctx, contract, id.Cents(400), at)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(600), rec.Balance)
	assert.Equal(t, id.Cents(1000), rec.Deposited)
	assert.NoError(t, rec.CheckInvariant())
}

func TestSnapshotRestores(t *testing.T) {
	store := New()
	ctx := context.Background()
	contract := id.ContractID(uuid.New())
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	restore := store.Snapshot()
	_, err := store.Fund(ctx, contract, id.Cents(1000), at)
	require.NoError(t, err)
	restore()

	_, err = store.FindByContract(ctx, contract)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFundRefusesToOverflow(t *testing.T) {
	store := New()
	ctx := context.Background()
	contract := id.ContractID(uuid.New())
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.Fund(ctx, contract, id.Cents(math.MaxInt64-10), at)
	require.NoError(t, err)

	_, err = store.Fund(ctx, contract, id.Cents(11), at)
	assert.ErrorIs(t, err, sentinel.ErrOutOfRange)

	rec, err := store.FindByContract(ctx, contract)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(math.MaxInt64-10), rec.Balance)
}
