// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Phone: digits-only phone number, the sign-in identity for the mobile app

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents employers and job seekers.
//
// Field names in BSON match the documents the mobile and web clients have
// been writing, so existing collections load without migration.
//
// Identity fields:
//   - Phone: sign-in identity for /api/auth (unique)
//   - Email: optional sign-in identity for /api/users (unique when set)
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Phone    string             `bson:"phone" json:"phone"`
	Email    *string            `bson:"email,omitempty" json:"email,omitempty"`
	Location string             `bson:"location" json:"location"`

	PasswordHash string `bson:"password" json:"-"` // bcrypt hash (never in JSON)

	Role string `bson:"role" json:"role"` // employee, employer

	// Role-specific profile fields. Only the one matching Role is kept.
	Specialization string `bson:"specialization" json:"specialization"` // employees
	JobType        string `bson:"jobType" json:"jobType"`               // employers

	JoinDate  time.Time  `bson:"joinDate" json:"joinDate"`
	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// User roles
const (
	RoleEmployee = "employee"
	RoleEmployer = "employer"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleEmployee,
		RoleEmployer,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// ApplyRoleFields clears the profile field that does not belong to the
// user's role.
func (u *User) ApplyRoleFields() {
	switch u.Role {
	case RoleEmployee:
		u.JobType = ""
	case RoleEmployer:
		u.Specialization = ""
	}
}
