package entity

import "time"

// Role selects which admin panel a user lands on.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleClientAdmin Role = "client_admin"
)

func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleClientAdmin
}

// DashboardPath is the panel route a client should navigate to after sign-in.
func (r Role) DashboardPath() string {
	if r == RoleClientAdmin {
		return "/client-admin/dashboard"
	}
	return "/dashboard"
}

// User represents a row in the `Users` table.
type User struct {
	ID             int64     `db:"id"`
	UserIdentifier string    `db:"user_identifier"`
	PasswordHash   string    `db:"password_hash"`
	Role           Role      `db:"role"`
	FullName       *string   `db:"full_name"`
	Email          *string   `db:"email"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Credentials is the projection needed to verify a sign-in.
type Credentials struct {
	ID             int64  `db:"id"`
	UserIdentifier string `db:"user_identifier"`
	PasswordHash   string `db:"password_hash"`
	Role           Role   `db:"role"`
}

// SampleAccount is a development account created by the initializer.
// FullName and Email are optional; empty values get defaults derived from
// the identifier.
type SampleAccount struct {
	Identifier string
	Password   string
	Role       Role
	FullName   string
	Email      string
}

// SeededAccount reports one sample account after seeding. Created is false
// when the identifier already existed and the insert was skipped.
type SeededAccount struct {
	Identifier string
	Password   string
	Role       Role
	Created    bool
}
