package service

import (
	"context"
	"errors"
	"log"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
	"aves/lms-app/internal/storage"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrCannotDeleteAdmin = errors.New("admin accounts cannot be deleted")
)

// DashboardStats feeds the admin landing page.
type DashboardStats struct {
	Students         int64 `json:"students"`
	Teachers         int64 `json:"teachers"`
	Admins           int64 `json:"admins"`
	PendingMaterials int64 `json:"pending_materials"`
	TotalMaterials   int64 `json:"total_materials"`
}

// Analytics aggregates platform activity for the admin analytics view.
type Analytics struct {
	SignupsPerDay  map[string]int64                `json:"signups_per_day"`
	MaterialStatus map[domain.ApprovalStatus]int64 `json:"material_status"`
	TopSubjects    map[string]int64                `json:"top_subjects"`
	TotalUsers     int64                           `json:"total_users"`
	TotalMaterials int64                           `json:"total_materials"`
	UsersByRole    map[domain.Role]int64           `json:"users_by_role"`
}

type AdminService interface {
	CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	ListUsers(ctx context.Context, role domain.Role, page, perPage int) (users []domain.User, totalPages int, err error)
	UpdateUser(ctx context.Context, userID int64, name, email string) error
	DeleteUser(ctx context.Context, userID int64) error
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	PlatformAnalytics(ctx context.Context, days int) (*Analytics, error)
}

type adminService struct {
	users     repository.UserRepository
	materials repository.MaterialRepository
	profiles  repository.ProfileRepository
	files     storage.FileStorage
	auth      AuthService
}

// NewAdminService wires user management and analytics. Account creation
// delegates to the auth service so the password policy stays in one place.
func NewAdminService(
	users repository.UserRepository,
	materials repository.MaterialRepository,
	profiles repository.ProfileRepository,
	files storage.FileStorage,
	auth AuthService,
) AdminService {
	return &adminService{
		users:     users,
		materials: materials,
		profiles:  profiles,
		files:     files,
		auth:      auth,
	}
}

func (s *adminService) CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(string(role)) {
		return nil, errors.New("invalid role")
	}
	return s.auth.Register(ctx, name, email, password, role)
}

// ListUsers pages a role-filtered user listing, empty role meaning all.
func (s *adminService) ListUsers(ctx context.Context, role domain.Role, page, perPage int) ([]domain.User, int, error) {
	all, err := s.users.List(ctx, role)
	if err != nil {
		return nil, 0, err
	}
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (len(all) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(all) {
		return []domain.User{}, totalPages, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], totalPages, nil
}

func (s *adminService) UpdateUser(ctx context.Context, userID int64, name, email string) error {
	err := s.users.Update(ctx, userID, name, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrUserAlreadyExists
	}
	return err
}

// DeleteUser removes the account together with its uploads and profile.
// Admin accounts are refused outright so the platform cannot lock itself
// out. Stored files are removed best-effort after the rows are gone.
func (s *adminService) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsAdmin() {
		return ErrCannotDeleteAdmin
	}

	fileKeys, err := s.materials.DeleteByUploader(ctx, userID)
	if err != nil {
		return err
	}
	if store, ok := s.profiles.ForRole(user.Role); ok {
		if profile, perr := store.Get(ctx, userID); perr == nil {
			if photo := profile.Photo(); photo != nil && *photo != "" {
				fileKeys = append(fileKeys, *photo)
			}
		}
		if err := store.DeleteByUser(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	for _, key := range fileKeys {
		if err := s.files.Delete(ctx, key); err != nil {
			log.Printf("ERROR: failed to delete file %s for removed user %d: %v", key, userID, err)
		}
	}
	return nil
}

func (s *adminService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	_, roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	totalMaterials, statuses, err := s.materials.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Students:         roles[domain.RoleStudent],
		Teachers:         roles[domain.RoleTeacher],
		Admins:           roles[domain.RoleAdmin],
		PendingMaterials: statuses[domain.StatusPending],
		TotalMaterials:   totalMaterials,
	}, nil
}

func (s *adminService) PlatformAnalytics(ctx context.Context, days int) (*Analytics, error) {
	if days <= 0 {
		days = 30
	}
	signups, err := s.users.SignupsPerDay(ctx, days)
	if err != nil {
		return nil, err
	}
	totalMaterials, statuses, err := s.materials.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.materials.TopSubjects(ctx, 10)
	if err != nil {
		return nil, err
	}
	totalUsers, roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{
		SignupsPerDay:  signups,
		MaterialStatus: statuses,
		TopSubjects:    subjects,
		TotalUsers:     totalUsers,
		TotalMaterials: totalMaterials,
		UsersByRole:    roles,
	}, nil
}
