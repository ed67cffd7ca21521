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

// GormClientDirectory updates client visit metadata
type GormClientDirectory struct {
	db *gorm.DB
}

// NewGormClientDirectory creates a client directory adapter backed by the
// given database
func NewGormClientDirectory(db *gorm.DB) *GormClientDirectory {
	return &GormClientDirectory{db: db}
}

// UpdateLastVisit stamps the client's last visit to now
func (d *GormClientDirectory) UpdateLastVisit(ctx context.Context, clientID uuid.UUID) error {
	now := time.Now()
	result := d.db.WithContext(ctx).Model(&ClientModel{}).
		Where("id = ?", clientID).
		Updates(map[string]any{"last_visit_at": now, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("INVALID_CLIENT", "Client not found")
	}
	return nil
}

var _ tab.ClientDirectory = (*GormClientDirectory)(nil)

// GormStaffDirectory resolves staff roles and appointment performers
type GormStaffDirectory struct {
	db *gorm.DB
}

// NewGormStaffDirectory creates a staff directory adapter backed by the
// given database
func NewGormStaffDirectory(db *gorm.DB) *GormStaffDirectory {
	return &GormStaffDirectory{db: db}
}

// GetRole returns the staff member's role within the tenant
func (d *GormStaffDirectory) GetRole(ctx context.Context, tenantID, userID uuid.UUID) (shared.Role, error) {
	var m StaffMemberModel
	err := d.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.NewDomainError("INVALID_OPENER", "Staff member not found")
		}
		return "", err
	}
	role := shared.Role(m.Role)
	if !role.IsValid() {
		return "", shared.NewDomainError("INVALID_OPENER", "Staff member has an unknown role")
	}
	return role, nil
}

// GetAppointmentPerformer returns the performer assigned to an
// appointment, or nil when none is assigned.
func (d *GormStaffDirectory) GetAppointmentPerformer(ctx context.Context, tenantID, appointmentID uuid.UUID) (*uuid.UUID, error) {
	var m AppointmentModel
	err := d.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", appointmentID, tenantID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.PerformerID, nil
}

var _ tab.StaffDirectory = (*GormStaffDirectory)(nil)
