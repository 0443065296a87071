package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
)

// profileRepository dispatches to one store per role variant. Handlers and
// services never branch on role strings to pick a table; they ask the
// dispatcher for the variant store.
type profileRepository struct {
	stores map[domain.Role]repository.ProfileStore
}

func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{stores: map[domain.Role]repository.ProfileStore{
		domain.RoleStudent: &studentProfileStore{db: db},
		domain.RoleTeacher: &teacherProfileStore{db: db},
		domain.RoleAdmin:   &adminProfileStore{db: db},
	}}
}

func (r *profileRepository) ForRole(role domain.Role) (repository.ProfileStore, bool) {
	s, ok := r.stores[role]
	return s, ok
}

// profileExists reports whether a profile row exists for the user in the
// given table. Upserts are an existence check followed by a fixed-shape
// UPDATE or INSERT; no statement is assembled from string parts.
func profileExists(ctx context.Context, db *sql.DB, table string, userID int64) (bool, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE user_id = ? LIMIT 1", table), userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func deleteProfile(ctx context.Context, db *sql.DB, table string, userID int64) error {
	_, err := db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", table), userID)
	return err
}

// --- student variant ---

type studentProfileStore struct{ db *sql.DB }

func (s *studentProfileStore) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	var p domain.StudentProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, phone, register_number, department,
		        course_details, photo_path, updated_at
		 FROM student_profiles WHERE user_id = ? LIMIT 1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.RegisterNumber,
			&p.Department, &p.CourseDetails, &p.PhotoPath, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *studentProfileStore) Upsert(ctx context.Context, prof domain.Profile) error {
	p, ok := prof.(domain.StudentProfile)
	if !ok {
		return fmt.Errorf("student profile store: unexpected variant %T", prof)
	}
	exists, err := profileExists(ctx, s.db, "student_profiles", p.UserID)
	if err != nil {
		return err
	}
	if exists {
		if p.PhotoPath != nil {
			_, err = s.db.ExecContext(ctx,
				`UPDATE student_profiles SET name = ?, email = ?, phone = ?,
				 register_number = ?, department = ?, course_details = ?, photo_path = ?
				 WHERE user_id = ?`,
				p.Name, p.Email, p.Phone, p.RegisterNumber, p.Department,
				p.CourseDetails, *p.PhotoPath, p.UserID)
		} else {
			// No new photo: keep the stored path.
			_, err = s.db.ExecContext(ctx,
				`UPDATE student_profiles SET name = ?, email = ?, phone = ?,
				 register_number = ?, department = ?, course_details = ?
				 WHERE user_id = ?`,
				p.Name, p.Email, p.Phone, p.RegisterNumber, p.Department,
				p.CourseDetails, p.UserID)
		}
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO student_profiles
		 (user_id, name, email, phone, register_number, department, course_details, photo_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Email, p.Phone, p.RegisterNumber, p.Department,
		p.CourseDetails, p.PhotoPath)
	return err
}

func (s *studentProfileStore) DeleteByUser(ctx context.Context, userID int64) error {
	return deleteProfile(ctx, s.db, "student_profiles", userID)
}

// --- teacher variant ---

type teacherProfileStore struct{ db *sql.DB }

func (s *teacherProfileStore) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	var p domain.TeacherProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, phone, department, posting,
		        specialization, bio, photo_path, updated_at
		 FROM teacher_profiles WHERE user_id = ? LIMIT 1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.Department,
			&p.Posting, &p.Specialization, &p.Bio, &p.PhotoPath, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *teacherProfileStore) Upsert(ctx context.Context, prof domain.Profile) error {
	p, ok := prof.(domain.TeacherProfile)
	if !ok {
		return fmt.Errorf("teacher profile store: unexpected variant %T", prof)
	}
	exists, err := profileExists(ctx, s.db, "teacher_profiles", p.UserID)
	if err != nil {
		return err
	}
	if exists {
		if p.PhotoPath != nil {
			_, err = s.db.ExecContext(ctx,
				`UPDATE teacher_profiles SET name = ?, email = ?, phone = ?,
				 department = ?, posting = ?, specialization = ?, bio = ?, photo_path = ?
				 WHERE user_id = ?`,
				p.Name, p.Email, p.Phone, p.Department, p.Posting,
				p.Specialization, p.Bio, *p.PhotoPath, p.UserID)
		} else {
			_, err = s.db.ExecContext(ctx,
				`UPDATE teacher_profiles SET name = ?, email = ?, phone = ?,
				 department = ?, posting = ?, specialization = ?, bio = ?
				 WHERE user_id = ?`,
				p.Name, p.Email, p.Phone, p.Department, p.Posting,
				p.Specialization, p.Bio, p.UserID)
		}
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO teacher_profiles
		 (user_id, name, email, phone, department, posting, specialization, bio, photo_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Email, p.Phone, p.Department, p.Posting,
		p.Specialization, p.Bio, p.PhotoPath)
	return err
}

func (s *teacherProfileStore) DeleteByUser(ctx context.Context, userID int64) error {
	return deleteProfile(ctx, s.db, "teacher_profiles", userID)
}

// --- admin variant ---

type adminProfileStore struct{ db *sql.DB }

func (s *adminProfileStore) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	var p domain.AdminProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, phone, department, designation,
		        photo_path, updated_at
		 FROM admin_profiles WHERE user_id = ? LIMIT 1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.Department,
			&p.Designation, &p.PhotoPath, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *adminProfileStore) Upsert(ctx context.Context, prof domain.Profile) error {
	p, ok := prof.(domain.AdminProfile)
	if !ok {
		return fmt.Errorf("admin profile store: unexpected variant %T", prof)
	}
	exists, err := profileExists(ctx, s.db, "admin_profiles", p.UserID)
	if err != nil {
		return err
	}
	if exists {
		if p.PhotoPath != nil {
			_, err = s.db.ExecContext(ctx,
				`UPDATE admin_profiles SET name = ?, email = ?, phone = ?,
				 department = ?, designation = ?, photo_path = ?
				 WHERE user_id = ?`,
				p.Name, p.Email, p.Phone, p.Department, p.Designation,
				*p.PhotoPath, p.UserID)
		} else {
			_, err = s.db.ExecContext(ctx,
				`UPDATE admin_profiles SET name = ?, email = ?, phone = ?,
				 department = ?, designation = ?
				 WHERE user_id = ?`,
				p.Name, p.Email, p.Phone, p.Department, p.Designation, p.UserID)
		}
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admin_profiles
		 (user_id, name, email, phone, department, designation, photo_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Email, p.Phone, p.Department, p.Designation, p.PhotoPath)
	return err
}

func (s *adminProfileStore) DeleteByUser(ctx context.Context, userID int64) error {
	return deleteProfile(ctx, s.db, "admin_profiles", userID)
}
