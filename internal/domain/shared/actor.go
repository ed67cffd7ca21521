package shared

import "github.com/google/uuid"

// Role represents the role of a staff member within a tenant
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleCashier      Role = "CASHIER"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleProfessional Role = "PROFESSIONAL"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleReceptionist, RoleProfessional:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsFrontline returns true for roles that perform services directly
func (r Role) IsFrontline() bool {
	return r == RoleProfessional
}

// IsElevated returns true for roles allowed to perform permission-gated
// operations such as reopening a closed tab
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleManager
}

// Actor is the tenant-scoped identity performing an operation
type Actor struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

// NewActor creates a new actor context
func NewActor(id, tenantID uuid.UUID, role Role) Actor {
	return Actor{ID: id, TenantID: tenantID, Role: role}
}
