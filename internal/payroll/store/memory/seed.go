package memory

import (
	"context"
	"time"

	"contractpay/internal/payroll/models"
	id "contractpay/pkg/domain"
)

// SeedDemo loads three pending payouts for one talent and contract, scheduled
// a week apart starting at start.
func (s *Store) SeedDemo(talentID id.TalentID, contractID id.ContractID, start time.Time) error {
	amounts := []id.Cents{125000, 98050, 43025}
	for i, amount := range amounts {
		scheduled := start.AddDate(0, 0, 7*i)
		if err := s.Create(context.Background(), &models.Payout{
			ID:            id.NewPayoutID(),
			TalentID:      talentID,
			ContractID:    contractID,
			NetAmount:     amount,
			ScheduledDate: scheduled,
			TaxYear:       scheduled.Year(),
			Status:        models.StatusPending,
			CreatedAt:     start,
			UpdatedAt:     start,
		}); err != nil {
			return err
		}
	}
	return nil
}
