package domain

import "time"

// Profile is the shared view over the three per-role profile variants.
// Each variant is a distinct type stored in its own table; the repository
// layer picks the implementation by role instead of branching on role
// strings inside handlers.
type Profile interface {
	ProfileRole() Role
	Owner() int64
	Photo() *string
}

// ProfileCommon holds the fields every variant shares. PhotoPath is a
// pointer so an upsert can distinguish "no new photo" (nil, keep stored
// value) from an explicit replacement.
type ProfileCommon struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	PhotoPath *string    `json:"photoPath,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (p ProfileCommon) Owner() int64   { return p.UserID }
func (p ProfileCommon) Photo() *string { return p.PhotoPath }

// StudentProfile is the student variant of the per-user profile.
type StudentProfile struct {
	ProfileCommon
	RegisterNumber string `json:"registerNumber"`
	Department     string `json:"department"`
	CourseDetails  string `json:"courseDetails"`
}

func (StudentProfile) ProfileRole() Role { return RoleStudent }

// TeacherProfile is the teacher variant of the per-user profile.
type TeacherProfile struct {
	ProfileCommon
	Department     string `json:"department"`
	Posting        string `json:"posting"`
	Specialization string `json:"specialization,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

func (TeacherProfile) ProfileRole() Role { return RoleTeacher }

// AdminProfile is the admin variant of the per-user profile.
type AdminProfile struct {
	ProfileCommon
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

func (AdminProfile) ProfileRole() Role { return RoleAdmin }
