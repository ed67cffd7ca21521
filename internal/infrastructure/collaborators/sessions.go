package collaborators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormPrepaidSessions manages client package balances and their usages
type GormPrepaidSessions struct {
	db *gorm.DB
}

// NewGormPrepaidSessions creates a prepaid session adapter backed by the
// given database
func NewGormPrepaidSessions(db *gorm.DB) *GormPrepaidSessions {
	return &GormPrepaidSessions{db: db}
}

// CheckAvailable reports whether the client holds an unexpired balance
// with remaining sessions for the service.
func (s *GormPrepaidSessions) CheckAvailable(ctx context.Context, clientID, serviceID uuid.UUID) (*tab.PackageBalance, error) {
	var m PackageBalanceModel
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND service_id = ? AND remaining > 0", clientID, serviceID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("expires_at ASC NULLS LAST").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &tab.PackageBalance{Available: false}, nil
		}
		return nil, err
	}
	return &tab.PackageBalance{
		Available: true,
		PackageID: m.PackageID,
		BalanceID: m.ID,
		Remaining: m.Remaining,
	}, nil
}

// Consume decrements the balance and records a usage row. The decrement
// is conditional on the remaining count so concurrent consumes of the
// last session cannot both succeed.
func (s *GormPrepaidSessions) Consume(ctx context.Context, consumption tab.SessionConsumption) (*tab.SessionUsage, error) {
	var usage *tab.SessionUsage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var balance PackageBalanceModel
		err := tx.
			Where("tenant_id = ? AND package_id = ? AND service_id = ? AND remaining > 0",
				consumption.TenantID, consumption.PackageID, consumption.ServiceID).
			Where("expires_at IS NULL OR expires_at > ?", time.Now()).
			First(&balance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewDomainError("INVALID_SERVICE", "No remaining sessions for this service")
			}
			return err
		}

		now := time.Now()
		result := tx.Model(&PackageBalanceModel{}).
			Where("id = ? AND remaining = ?", balance.ID, balance.Remaining).
			Updates(map[string]any{"remaining": balance.Remaining - 1, "updated_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		record := SessionUsageModel{
			ID:          uuid.New(),
			TenantID:    consumption.TenantID,
			BalanceID:   balance.ID,
			TabID:       consumption.TabID,
			ServiceID:   consumption.ServiceID,
			PerformerID: consumption.PerformerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		usage = &tab.SessionUsage{UsageID: record.ID, Remaining: balance.Remaining - 1}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// Revert restores one session to the balance a usage was consumed from.
// Reverting an already reverted usage is a no-op.
func (s *GormPrepaidSessions) Revert(ctx context.Context, usageID uuid.UUID, note string) (int, error) {
	remaining := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record SessionUsageModel
		if err := tx.Where("id = ?", usageID).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewDomainError("REVERSAL_FAILED", "Session usage not found")
			}
			return err
		}

		var balance PackageBalanceModel
		if err := tx.Where("id = ?", record.BalanceID).First(&balance).Error; err != nil {
			return err
		}
		remaining = balance.Remaining

		if record.RevertedAt != nil {
			return nil
		}

		now := time.Now()
		if err := tx.Model(&SessionUsageModel{}).
			Where("id = ? AND reverted_at IS NULL", record.ID).
			Updates(map[string]any{"reverted_at": now, "revert_note": note, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&PackageBalanceModel{}).
			Where("id = ?", balance.ID).
			Updates(map[string]any{"remaining": gorm.Expr("remaining + 1"), "updated_at": now}).Error; err != nil {
			return err
		}
		remaining = balance.Remaining + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

var _ tab.PrepaidSessionService = (*GormPrepaidSessions)(nil)
