package repository

import (
	"context"
	"time"

	"aves/lms-app/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicateEmail = RepositoryError("email already registered")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user rows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error) // role=="" lists all
	Update(ctx context.Context, id int64, name, email string) error
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context) (total int64, perRole map[domain.Role]int64, err error)
	SignupsPerDay(ctx context.Context, days int) (map[string]int64, error)
}

// MaterialRepository defines the interface for interacting with study
// material rows and their approval state.
type MaterialRepository interface {
	Create(ctx context.Context, m *domain.Material) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Material, error)
	ListByUploader(ctx context.Context, uploaderID int64) ([]domain.Material, error)
	// ListApproved returns approved materials, newest first, optionally
	// restricted to one subject (subject=="" means all).
	ListApproved(ctx context.Context, subject string) ([]domain.Material, error)
	// ListAll returns every material with uploader names joined,
	// optionally filtered by status (status=="" means all).
	ListAll(ctx context.Context, status domain.ApprovalStatus) ([]domain.Material, error)
	ApprovedSubjects(ctx context.Context) ([]string, error)
	SetApproval(ctx context.Context, id int64, status domain.ApprovalStatus, adminID int64, at time.Time) error
	IncrementDownloads(ctx context.Context, id int64) error
	UpdateDetails(ctx context.Context, id int64, title, subject, description string) error
	Delete(ctx context.Context, id int64) error
	DeleteByUploader(ctx context.Context, uploaderID int64) ([]string, error) // returns removed file keys
	CountByStatus(ctx context.Context) (total int64, perStatus map[domain.ApprovalStatus]int64, err error)
	TopSubjects(ctx context.Context, limit int) (map[string]int64, error)
}

// ProfileStore is the per-variant profile access interface. One
// implementation exists per role; ProfileRepository dispatches to it.
type ProfileStore interface {
	Get(ctx context.Context, userID int64) (domain.Profile, error)
	// Upsert updates the existing row for the profile's owner or inserts
	// a new one. A nil photo on the profile means "keep the stored path".
	Upsert(ctx context.Context, p domain.Profile) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// ProfileRepository resolves the variant store for a role.
type ProfileRepository interface {
	ForRole(role domain.Role) (ProfileStore, bool)
}

// EnrollmentStore is the additive, file-backed enrollment API.
type EnrollmentStore interface {
	Add(studentID, studentName, courseName string) (*domain.Enrollment, error)
	ByStudent(studentID string) ([]domain.Enrollment, error)
	ByCourse(courseName string) ([]domain.Enrollment, error)
	Courses() ([]domain.CourseSummary, error)
}
