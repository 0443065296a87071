package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
	"aves/lms-app/internal/storage"
)

var (
	ErrProfileRoleUnknown   = errors.New("no profile defined for role")
	ErrPhotoTypeNotAllowed  = errors.New("photo type not allowed")
	ErrProfilePhotoNotFound = errors.New("profile photo not found")
)

// PhotoUpload is an optional profile photo. A nil PhotoUpload on the
// input means "keep the current photo".
type PhotoUpload struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// ProfileInput carries a profile form submission. Only the fields for
// the caller's role are read; the rest are ignored.
type ProfileInput struct {
	Name  string
	Phone string

	// student
	RegisterNumber string
	CourseDetails  string

	// student, teacher and admin
	Department string

	// teacher
	Posting        string
	Specialization string
	Bio            string

	// admin
	Designation string

	Photo *PhotoUpload
}

type ProfileService interface {
	// Get returns the stored profile, or a blank one prefilled from the
	// session identity when the user never saved a profile.
	Get(ctx context.Context, actor Identity) (domain.Profile, error)
	Save(ctx context.Context, actor Identity, in ProfileInput) (domain.Profile, error)
	OpenPhoto(ctx context.Context, actor Identity) (io.ReadCloser, error)
}

type profileService struct {
	profiles  repository.ProfileRepository
	files     storage.FileStorage
	photoExts map[string]bool
}

func NewProfileService(profiles repository.ProfileRepository, files storage.FileStorage, photoExtensions []string) ProfileService {
	allowed := make(map[string]bool, len(photoExtensions))
	for _, ext := range photoExtensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &profileService{
		profiles:  profiles,
		files:     files,
		photoExts: allowed,
	}
}

func (s *profileService) Get(ctx context.Context, actor Identity) (domain.Profile, error) {
	store, ok := s.profiles.ForRole(actor.Role)
	if !ok {
		return nil, ErrProfileRoleUnknown
	}
	profile, err := store.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return emptyProfile(actor), nil
		}
		return nil, err
	}
	return profile, nil
}

// emptyProfile seeds the form with what the session already knows.
func emptyProfile(actor Identity) domain.Profile {
	common := domain.ProfileCommon{
		UserID: actor.UserID,
		Name:   actor.Name,
		Email:  actor.Email,
	}
	switch actor.Role {
	case domain.RoleTeacher:
		return domain.TeacherProfile{ProfileCommon: common}
	case domain.RoleAdmin:
		return domain.AdminProfile{ProfileCommon: common}
	default:
		return domain.StudentProfile{ProfileCommon: common}
	}
}

// Save upserts the caller's profile. An omitted photo keeps the current
// one; a new photo is stored first and the old file removed best-effort
// after the row is written.
func (s *profileService) Save(ctx context.Context, actor Identity, in ProfileInput) (domain.Profile, error) {
	store, ok := s.profiles.ForRole(actor.Role)
	if !ok {
		return nil, ErrProfileRoleUnknown
	}

	var oldPhoto *string
	if existing, err := store.Get(ctx, actor.UserID); err == nil {
		oldPhoto = existing.Photo()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var photoPath *string
	if in.Photo != nil {
		key, err := s.savePhoto(ctx, in.Photo)
		if err != nil {
			return nil, err
		}
		photoPath = &key
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = actor.Name
	}
	common := domain.ProfileCommon{
		UserID:    actor.UserID,
		Name:      name,
		Email:     actor.Email,
		Phone:     strings.TrimSpace(in.Phone),
		PhotoPath: photoPath,
	}

	var profile domain.Profile
	switch actor.Role {
	case domain.RoleStudent:
		profile = domain.StudentProfile{
			ProfileCommon:  common,
			RegisterNumber: strings.TrimSpace(in.RegisterNumber),
			Department:     strings.TrimSpace(in.Department),
			CourseDetails:  strings.TrimSpace(in.CourseDetails),
		}
	case domain.RoleTeacher:
		profile = domain.TeacherProfile{
			ProfileCommon:  common,
			Department:     strings.TrimSpace(in.Department),
			Posting:        strings.TrimSpace(in.Posting),
			Specialization: strings.TrimSpace(in.Specialization),
			Bio:            strings.TrimSpace(in.Bio),
		}
	case domain.RoleAdmin:
		profile = domain.AdminProfile{
			ProfileCommon: common,
			Department:    strings.TrimSpace(in.Department),
			Designation:   strings.TrimSpace(in.Designation),
		}
	default:
		return nil, ErrProfileRoleUnknown
	}

	if err := store.Upsert(ctx, profile); err != nil {
		if photoPath != nil {
			if derr := s.files.Delete(ctx, *photoPath); derr != nil {
				log.Printf("ERROR: failed to remove orphaned photo %s: %v", *photoPath, derr)
			}
		}
		return nil, err
	}

	// The old photo is unreferenced once the row points at the new one.
	if photoPath != nil && oldPhoto != nil && *oldPhoto != *photoPath {
		if err := s.files.Delete(ctx, *oldPhoto); err != nil {
			log.Printf("ERROR: failed to remove replaced photo %s: %v", *oldPhoto, err)
		}
	}

	return store.Get(ctx, actor.UserID)
}

func (s *profileService) savePhoto(ctx context.Context, photo *PhotoUpload) (string, error) {
	ext := extension(photo.FileName)
	if ext == "" || !s.photoExts[ext] {
		return "", ErrPhotoTypeNotAllowed
	}
	key := "profiles/" + strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext
	if err := s.files.Save(ctx, key, photo.Content, photo.Size); err != nil {
		return "", err
	}
	return key, nil
}

func (s *profileService) OpenPhoto(ctx context.Context, actor Identity) (io.ReadCloser, error) {
	store, ok := s.profiles.ForRole(actor.Role)
	if !ok {
		return nil, ErrProfileRoleUnknown
	}
	profile, err := store.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfilePhotoNotFound
		}
		return nil, err
	}
	photo := profile.Photo()
	if photo == nil || *photo == "" {
		return nil, ErrProfilePhotoNotFound
	}
	content, err := s.files.Open(ctx, *photo)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrProfilePhotoNotFound
	}
	return content, err
}
