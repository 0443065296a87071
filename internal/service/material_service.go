package service

import (
	"context"
	"errors"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
	"aves/lms-app/internal/storage"
)

var (
	ErrMaterialNotFound    = errors.New("material not found")
	ErrMaterialFileMissing = errors.New("material file not found on storage")
	ErrNotAuthorized       = errors.New("not authorized for this material")
	ErrTitleRequired       = errors.New("title is required")
	ErrSubjectRequired     = errors.New("subject is required")
	ErrNoFileProvided      = errors.New("no file provided")
	ErrFileTypeNotAllowed  = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum upload size")
)

// Identity is the authenticated caller, resolved from the session by the
// middleware and passed explicitly instead of read from ambient state.
type Identity struct {
	UserID int64
	Email  string
	Name   string
	Role   domain.Role
}

// UploadInput carries one multipart material upload.
type UploadInput struct {
	Title       string
	Subject     string
	Description string
	FileName    string // original client filename, kept as metadata
	Size        int64
	Content     io.Reader
}

// TeacherStats summarizes a teacher's uploads for the dashboard.
type TeacherStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
}

// DownloadResult streams one material back to the client. Content must be
// closed by the caller.
type DownloadResult struct {
	Content  io.ReadCloser
	FileName string
}

type MaterialService interface {
	Upload(ctx context.Context, teacherID int64, in UploadInput) (*domain.Material, error)
	Approve(ctx context.Context, adminID, materialID int64) error
	Reject(ctx context.Context, adminID, materialID int64, reason string) error
	ListForStudent(ctx context.Context, subject string) ([]domain.Material, error)
	ApprovedSubjects(ctx context.Context) ([]string, error)
	ListForTeacher(ctx context.Context, teacherID int64) ([]domain.Material, TeacherStats, error)
	ListAll(ctx context.Context, status domain.ApprovalStatus, page, perPage int) (materials []domain.Material, totalPages int, err error)
	UpdateDetails(ctx context.Context, actor Identity, materialID int64, title, subject, description string) error
	Delete(ctx context.Context, actor Identity, materialID int64) error
	Download(ctx context.Context, actor Identity, materialID int64) (*DownloadResult, error)
}

type materialService struct {
	materials  repository.MaterialRepository
	files      storage.FileStorage
	allowedExt map[string]bool
	maxSize    int64
}

// NewMaterialService wires the approval workflow over the material
// repository and file storage. allowedExtensions is the configured
// allow-list (lowercase, no dots); maxSize caps uploads in bytes.
func NewMaterialService(materials repository.MaterialRepository, files storage.FileStorage, allowedExtensions []string, maxSize int64) MaterialService {
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &materialService{
		materials:  materials,
		files:      files,
		allowedExt: allowed,
		maxSize:    maxSize,
	}
}

// extension returns the lowercased extension without the dot, or "" when
// the filename has none.
func extension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	return strings.ToLower(ext)
}

// Upload validates, stores the file under a generated key, and inserts
// the row with status pending. Nothing is persisted when validation
// fails; a generated unique name means concurrent uploads never collide.
func (s *materialService) Upload(ctx context.Context, teacherID int64, in UploadInput) (*domain.Material, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(in.Subject) == "" {
		return nil, ErrSubjectRequired
	}
	if in.FileName == "" || in.Content == nil {
		return nil, ErrNoFileProvided
	}
	ext := extension(in.FileName)
	if ext == "" || !s.allowedExt[ext] {
		return nil, ErrFileTypeNotAllowed
	}
	if s.maxSize > 0 && in.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	key := "materials/" + strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext
	if err := s.files.Save(ctx, key, in.Content, in.Size); err != nil {
		return nil, err
	}

	m := &domain.Material{
		Title:          strings.TrimSpace(in.Title),
		Subject:        strings.TrimSpace(in.Subject),
		Description:    strings.TrimSpace(in.Description),
		FilePath:       key,
		OriginalName:   path.Base(in.FileName),
		UploadedBy:     teacherID,
		ApprovalStatus: domain.StatusPending,
		UploadDate:     time.Now(),
	}
	id, err := s.materials.Create(ctx, m)
	if err != nil {
		// Row insert failed after the file landed; remove the orphan.
		if derr := s.files.Delete(ctx, key); derr != nil {
			log.Printf("ERROR: failed to remove orphaned upload %s: %v", key, derr)
		}
		return nil, err
	}
	m.ID = id
	return m, nil
}

// Approve moves a pending material to approved. Re-approving is
// idempotent: the status stays approved and actor/time refresh.
func (s *materialService) Approve(ctx context.Context, adminID, materialID int64) error {
	return s.setApproval(ctx, adminID, materialID, domain.StatusApproved)
}

// Reject moves a pending material to rejected. The reason is logged only;
// the schema does not record it.
func (s *materialService) Reject(ctx context.Context, adminID, materialID int64, reason string) error {
	if reason != "" {
		log.Printf("material %d rejected by admin %d: %s", materialID, adminID, reason)
	}
	return s.setApproval(ctx, adminID, materialID, domain.StatusRejected)
}

func (s *materialService) setApproval(ctx context.Context, adminID, materialID int64, status domain.ApprovalStatus) error {
	err := s.materials.SetApproval(ctx, materialID, status, adminID, time.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMaterialNotFound
	}
	return err
}

func (s *materialService) ListForStudent(ctx context.Context, subject string) ([]domain.Material, error) {
	return s.materials.ListApproved(ctx, strings.TrimSpace(subject))
}

func (s *materialService) ApprovedSubjects(ctx context.Context) ([]string, error) {
	return s.materials.ApprovedSubjects(ctx)
}

func (s *materialService) ListForTeacher(ctx context.Context, teacherID int64) ([]domain.Material, TeacherStats, error) {
	materials, err := s.materials.ListByUploader(ctx, teacherID)
	if err != nil {
		return nil, TeacherStats{}, err
	}
	var stats TeacherStats
	for _, m := range materials {
		stats.Total++
		switch m.ApprovalStatus {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusApproved:
			stats.Approved++
		}
	}
	return materials, stats, nil
}

// ListAll pages through every material for the admin view. Pagination is
// plain slice arithmetic over the full result, as the listing is small.
func (s *materialService) ListAll(ctx context.Context, status domain.ApprovalStatus, page, perPage int) ([]domain.Material, int, error) {
	all, err := s.materials.ListAll(ctx, status)
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
		return []domain.Material{}, totalPages, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], totalPages, nil
}

// UpdateDetails lets the owning teacher (or an admin) edit metadata.
func (s *materialService) UpdateDetails(ctx context.Context, actor Identity, materialID int64, title, subject, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(subject) == "" {
		return ErrSubjectRequired
	}
	m, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}
	if m.UploadedBy != actor.UserID && actor.Role != domain.RoleAdmin {
		return ErrNotAuthorized
	}
	return s.materials.UpdateDetails(ctx, materialID,
		strings.TrimSpace(title), strings.TrimSpace(subject), strings.TrimSpace(description))
}

// Delete removes the stored file best-effort and then the row. Database
// consistency wins over filesystem consistency: a failed file removal is
// logged and the row still goes away.
func (s *materialService) Delete(ctx context.Context, actor Identity, materialID int64) error {
	m, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}
	if m.UploadedBy != actor.UserID && actor.Role != domain.RoleAdmin {
		return ErrNotAuthorized
	}

	if err := s.files.Delete(ctx, m.FilePath); err != nil {
		log.Printf("ERROR: failed to delete file %s for material %d: %v", m.FilePath, m.ID, err)
	}
	err = s.materials.Delete(ctx, materialID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMaterialNotFound
	}
	return err
}

// visibleTo mirrors the listing rules: students see approved materials
// only; teachers additionally see their own regardless of status; admins
// see everything.
func visibleTo(actor Identity, m *domain.Material) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTeacher:
		return m.UploadedBy == actor.UserID || m.ApprovalStatus == domain.StatusApproved
	default:
		return m.ApprovalStatus == domain.StatusApproved
	}
}

// Download authorizes, opens the stored file, and only then increments
// the counter before handing the stream back. A missing row and a
// missing file are distinct not-found conditions.
func (s *materialService) Download(ctx context.Context, actor Identity, materialID int64) (*DownloadResult, error) {
	m, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	if !visibleTo(actor, m) {
		// Hidden materials are indistinguishable from absent ones.
		return nil, ErrMaterialNotFound
	}

	content, err := s.files.Open(ctx, m.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrMaterialFileMissing
		}
		return nil, err
	}

	// The increment is best-effort analytics; a failure must not block
	// the download itself.
	if err := s.materials.IncrementDownloads(ctx, materialID); err != nil {
		log.Printf("ERROR: failed to increment downloads for material %d: %v", materialID, err)
	}

	return &DownloadResult{Content: content, FileName: m.OriginalName}, nil
}
