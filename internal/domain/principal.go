package domain

import "time"

// PrincipalType differentiates staff vs customer tokens.
type PrincipalType string

const (
	PrincipalTypeStaff    PrincipalType = "STAFF"
	PrincipalTypeCustomer PrincipalType = "CUSTOMER"
)

// EntityStatus represents lifecycle states shared by all principals.
type EntityStatus string

const (
	EntityStatusNew     EntityStatus = "NEW"
	EntityStatusActive  EntityStatus = "ACTIVE"
	EntityStatusBlocked EntityStatus = "BLOCKED"
	EntityStatusDeleted EntityStatus = "DELETED"
)

// CanAuthenticate reports whether a principal in this state may log in or
// keep an existing session valid.
func (s EntityStatus) CanAuthenticate() bool {
	return s == EntityStatusNew || s == EntityStatusActive
}

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAdmin    StaffRole = "ADMIN"
	StaffRoleManager  StaffRole = "MANAGER"
	StaffRoleCaissier StaffRole = "CAISSIER"
	StaffRoleServeur  StaffRole = "SERVEUR"
)

// StaffMember models a restaurant operator (admin, manager, cashier, waiter).
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	RestaurantID *string
	Status       EntityStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is the domain model for diners who authenticate by phone.
type Customer struct {
	ID        string
	Phone     string
	Name      string
	Status    EntityStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
