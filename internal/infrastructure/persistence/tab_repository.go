package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
	"github.com/salonsuite/backend/internal/infrastructure/persistence/models"
)

// GormTabRepository implements tab.Repository using GORM
type GormTabRepository struct {
	db *gorm.DB
}

// NewGormTabRepository creates a new GormTabRepository
func NewGormTabRepository(db *gorm.DB) *GormTabRepository {
	return &GormTabRepository{db: db}
}

var nonTerminalStatuses = []tab.TabStatus{
	tab.TabStatusOpen,
	tab.TabStatusInService,
	tab.TabStatusWaitingPayment,
}

// FindByIDForTenant loads a tab with its items and payments
func (r *GormTabRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*tab.Tab, error) {
	var model models.TabModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByCardNumber finds the non-terminal tab holding a card number
func (r *GormTabRepository) FindActiveByCardNumber(ctx context.Context, tenantID uuid.UUID, cardNumber int) (*tab.Tab, error) {
	var model models.TabModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND card_number = ? AND status IN ?", tenantID, cardNumber, nonTerminalStatuses).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestByCardNumber finds the most recent tab that held a card number
func (r *GormTabRepository) FindLatestByCardNumber(ctx context.Context, tenantID uuid.UUID, cardNumber int) (*tab.Tab, error) {
	var model models.TabModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND card_number = ?", tenantID, cardNumber).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UsedCardNumbers returns the card numbers held by non-terminal tabs
func (r *GormTabRepository) UsedCardNumbers(ctx context.Context, tenantID uuid.UUID) ([]int, error) {
	var numbers []int
	if err := r.db.WithContext(ctx).
		Model(&models.TabModel{}).
		Where("tenant_id = ? AND status IN ?", tenantID, nonTerminalStatuses).
		Order("card_number ASC").
		Pluck("card_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// FindAllForTenant lists tabs with filtering and pagination
func (r *GormTabRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]tab.Tab, error) {
	var rows []models.TabModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TabModel{}).
			Preload("Items").
			Preload("Payments").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	tabs := make([]tab.Tab, len(rows))
	for i := range rows {
		tabs[i] = *rows[i].ToDomain()
	}
	return tabs, nil
}

// CountForTenant counts tabs matching the filter
func (r *GormTabRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TabModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a tab with its items and payments
func (r *GormTabRepository) Save(ctx context.Context, t *tab.Tab) error {
	model := models.TabModelFromDomain(t)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveAggregate(tx, model)
	})
}

// SaveWithLock saves with an optimistic version check. The version read and
// the conditional update run in one transaction; a moved version surfaces
// as shared.ErrConcurrencyConflict.
func (r *GormTabRepository) SaveWithLock(ctx context.Context, t *tab.Tab) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct{ Version int }
		if err := tx.Model(&models.TabModel{}).
			Where("id = ?", t.ID).
			Select("version").
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		currentVersion := row.Version

		if currentVersion != t.Version {
			return shared.ErrConcurrencyConflict
		}

		t.Version++
		t.UpdatedAt = time.Now()
		model := models.TabModelFromDomain(t)

		result := tx.Model(&models.TabModel{}).
			Where("id = ? AND version = ?", t.ID, currentVersion).
			Updates(map[string]interface{}{
				"card_number":       model.CardNumber,
				"client_id":         model.ClientID,
				"appointment_id":    model.AppointmentID,
				"status":            model.Status,
				"gross":             model.Gross,
				"item_discounts":    model.ItemDiscounts,
				"manual_discount":   model.ManualDiscount,
				"total_discounts":   model.TotalDiscounts,
				"net":               model.Net,
				"notes":             model.Notes,
				"service_closed_at": model.ServiceClosedAt,
				"service_closed_by": model.ServiceClosedBy,
				"cashier_closed_at": model.CashierClosedAt,
				"cashier_closed_by": model.CashierClosedBy,
				"canceled_at":       model.CanceledAt,
				"canceled_by":       model.CanceledBy,
				"cancel_reason":     model.CancelReason,
				"version":           model.Version,
				"updated_at":        model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.saveChildren(tx, model)
	})
}

// saveAggregate upserts the tab row then its children
func (r *GormTabRepository) saveAggregate(tx *gorm.DB, model *models.TabModel) error {
	items := model.Items
	payments := model.Payments
	model.Items = nil
	model.Payments = nil
	if err := tx.Save(model).Error; err != nil {
		return err
	}
	model.Items = items
	model.Payments = payments
	return r.saveChildren(tx, model)
}

// saveChildren upserts line items and payments. Items are soft-canceled and
// payments append-only, so rows are never deleted here.
func (r *GormTabRepository) saveChildren(tx *gorm.DB, model *models.TabModel) error {
	for i := range model.Items {
		model.Items[i].TabID = model.ID
		if err := tx.Save(&model.Items[i]).Error; err != nil {
			return err
		}
	}
	for i := range model.Payments {
		model.Payments[i].TabID = model.ID
		if err := tx.Save(&model.Payments[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// AppendEvent appends an audit event
func (r *GormTabRepository) AppendEvent(ctx context.Context, event *tab.TabEvent) error {
	return r.db.WithContext(ctx).Create(models.TabEventModelFromDomain(event)).Error
}

// ListEvents returns the audit events for a tab, oldest first
func (r *GormTabRepository) ListEvents(ctx context.Context, tenantID, tabID uuid.UUID) ([]tab.TabEvent, error) {
	var rows []models.TabEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND tab_id = ?", tenantID, tabID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]tab.TabEvent, len(rows))
	for i := range rows {
		events[i] = *rows[i].ToDomain()
	}
	return events, nil
}

// SnapshotExists reports whether a consumption snapshot exists for the
// (tab, item) pair
func (r *GormTabRepository) SnapshotExists(ctx context.Context, tabID, itemID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ConsumptionSnapshotModel{}).
		Where("tab_id = ? AND item_id = ?", tabID, itemID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveSnapshot persists a consumption snapshot
func (r *GormTabRepository) SaveSnapshot(ctx context.Context, snapshot *tab.ConsumptionSnapshot) error {
	return r.db.WithContext(ctx).Create(models.ConsumptionSnapshotModelFromDomain(snapshot)).Error
}

// FindSnapshotsByTab returns all consumption snapshots for a tab
func (r *GormTabRepository) FindSnapshotsByTab(ctx context.Context, tabID uuid.UUID) ([]tab.ConsumptionSnapshot, error) {
	var rows []models.ConsumptionSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("tab_id = ?", tabID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	snapshots := make([]tab.ConsumptionSnapshot, len(rows))
	for i := range rows {
		snapshots[i] = *rows[i].ToDomain()
	}
	return snapshots, nil
}

// applyFilter applies filter options to the query
func (r *GormTabRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormTabRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "active":
			if active, ok := value.(bool); ok && active {
				query = query.Where("status IN ?", nonTerminalStatuses)
			}
		case "client_id":
			query = query.Where("client_id = ?", value)
		case "card_number":
			query = query.Where("card_number = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}

// Ensure GormTabRepository implements tab.Repository
var _ tab.Repository = (*GormTabRepository)(nil)
