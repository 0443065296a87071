// Package file holds the JSON-file-backed enrollment store. Enrollments
// are the one entity kept outside the relational database; the store is
// additive only and the whole file is rewritten on every add.
package file

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
)

type enrollmentStore struct {
	path string
	mu   sync.Mutex
}

// NewEnrollmentStore returns a store persisting to the given JSON file.
// The file is created lazily on the first Add.
func NewEnrollmentStore(path string) repository.EnrollmentStore {
	return &enrollmentStore{path: path}
}

func (s *enrollmentStore) load() ([]domain.Enrollment, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var enrollments []domain.Enrollment
	if err := json.Unmarshal(data, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (s *enrollmentStore) save(enrollments []domain.Enrollment) error {
	data, err := json.MarshalIndent(enrollments, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *enrollmentStore) Add(studentID, studentName, courseName string) (*domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollments, err := s.load()
	if err != nil {
		return nil, err
	}
	e := domain.Enrollment{
		ID:             int64(len(enrollments) + 1),
		StudentID:      studentID,
		StudentName:    studentName,
		CourseName:     courseName,
		EnrollmentDate: time.Now().Format("2006-01-02"),
		Status:         "Active",
	}
	enrollments = append(enrollments, e)
	if err := s.save(enrollments); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *enrollmentStore) ByStudent(studentID string) ([]domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollments, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []domain.Enrollment
	for _, e := range enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *enrollmentStore) ByCourse(courseName string) ([]domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollments, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []domain.Enrollment
	for _, e := range enrollments {
		if strings.EqualFold(e.CourseName, courseName) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Courses returns the unique course names with enrollment counts, in
// first-seen order.
func (s *enrollmentStore) Courses() ([]domain.CourseSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollments, err := s.load()
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var courses []domain.CourseSummary
	for _, e := range enrollments {
		i, ok := index[e.CourseName]
		if !ok {
			index[e.CourseName] = len(courses)
			courses = append(courses, domain.CourseSummary{Name: e.CourseName})
			i = len(courses) - 1
		}
		courses[i].StudentsCount++
	}
	return courses, nil
}
