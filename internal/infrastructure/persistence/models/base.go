package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// TenantAggregateModel provides common persistence fields for tenant-scoped
// aggregate roots: version for optimistic locking plus tenant and creator.
type TenantAggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// FromDomainTenantAggregateRoot populates TenantAggregateModel from domain TenantAggregateRoot
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Version = t.Version
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

// PopulateTenantAggregateRoot populates a domain TenantAggregateRoot from persistence model
func (m *TenantAggregateModel) PopulateTenantAggregateRoot(t *shared.TenantAggregateRoot) {
	t.BaseAggregateRoot.BaseEntity.ID = m.ID
	t.BaseAggregateRoot.BaseEntity.CreatedAt = m.CreatedAt
	t.BaseAggregateRoot.BaseEntity.UpdatedAt = m.UpdatedAt
	t.BaseAggregateRoot.Version = m.Version
	t.TenantID = m.TenantID
	t.CreatedBy = m.CreatedBy
}
