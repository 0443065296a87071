package domain

import "time"

// Role type to distinguish between user roles
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether s names one of the three known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system (admin, teacher or student).
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"` // unique
	PasswordHash string    `json:"-"`     // never exposed via JSON
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
