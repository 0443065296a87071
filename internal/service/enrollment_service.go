package service

import (
	"errors"
	"strconv"
	"strings"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
)

var ErrCourseNameRequired = errors.New("course name is required")

// EnrollmentService sits between the handlers and the file-backed store.
// The store is additive, so the service surface is enroll plus listings.
type EnrollmentService interface {
	Enroll(actor Identity, courseName string) (*domain.Enrollment, error)
	ForStudent(actor Identity) ([]domain.Enrollment, error)
	ForCourse(courseName string) ([]domain.Enrollment, error)
	Courses() ([]domain.CourseSummary, error)
}

type enrollmentService struct {
	store repository.EnrollmentStore
}

func NewEnrollmentService(store repository.EnrollmentStore) EnrollmentService {
	return &enrollmentService{store: store}
}

func (s *enrollmentService) Enroll(actor Identity, courseName string) (*domain.Enrollment, error) {
	courseName = strings.TrimSpace(courseName)
	if courseName == "" {
		return nil, ErrCourseNameRequired
	}
	return s.store.Add(strconv.FormatInt(actor.UserID, 10), actor.Name, courseName)
}

func (s *enrollmentService) ForStudent(actor Identity) ([]domain.Enrollment, error) {
	return s.store.ByStudent(strconv.FormatInt(actor.UserID, 10))
}

func (s *enrollmentService) ForCourse(courseName string) ([]domain.Enrollment, error) {
	return s.store.ByCourse(courseName)
}

func (s *enrollmentService) Courses() ([]domain.CourseSummary, error) {
	return s.store.Courses()
}
