package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
)

// mysqlMaterialRepository implements repository.MaterialRepository.
type mysqlMaterialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) repository.MaterialRepository {
	return &mysqlMaterialRepository{db: db}
}

const materialColumns = `m.id, m.title, m.subject, m.description, m.file_path,
	m.original_name, m.uploaded_by, m.approval_status, m.upload_date,
	m.approved_by, m.approval_date, m.download_count`

func scanMaterial(row interface{ Scan(...any) error }, withUploader bool) (*domain.Material, error) {
	var (
		m    domain.Material
		desc sql.NullString
		dest []any
	)
	dest = []any{&m.ID, &m.Title, &m.Subject, &desc, &m.FilePath,
		&m.OriginalName, &m.UploadedBy, &m.ApprovalStatus, &m.UploadDate,
		&m.ApprovedBy, &m.ApprovalDate, &m.DownloadCount}
	if withUploader {
		dest = append(dest, &m.UploaderName)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	m.Description = desc.String
	return &m, nil
}

func collectMaterials(rows *sql.Rows, withUploader bool) ([]domain.Material, error) {
	defer rows.Close()
	var out []domain.Material
	for rows.Next() {
		m, err := scanMaterial(rows, withUploader)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *mysqlMaterialRepository) Create(ctx context.Context, m *domain.Material) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO study_materials
		 (title, subject, description, file_path, original_name, uploaded_by, approval_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Subject, m.Description, m.FilePath, m.OriginalName,
		m.UploadedBy, m.ApprovalStatus)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *mysqlMaterialRepository) GetByID(ctx context.Context, id int64) (*domain.Material, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+materialColumns+" FROM study_materials m WHERE m.id = ? LIMIT 1", id)
	return scanMaterial(row, false)
}

func (r *mysqlMaterialRepository) ListByUploader(ctx context.Context, uploaderID int64) ([]domain.Material, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+materialColumns+` FROM study_materials m
		 WHERE m.uploaded_by = ? ORDER BY m.upload_date DESC`, uploaderID)
	if err != nil {
		return nil, err
	}
	return collectMaterials(rows, false)
}

func (r *mysqlMaterialRepository) ListApproved(ctx context.Context, subject string) ([]domain.Material, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if subject != "" {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+materialColumns+`, u.name FROM study_materials m
			 JOIN users u ON m.uploaded_by = u.id
			 WHERE m.approval_status = 'approved' AND m.subject = ?
			 ORDER BY m.upload_date DESC`, subject)
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+materialColumns+`, u.name FROM study_materials m
			 JOIN users u ON m.uploaded_by = u.id
			 WHERE m.approval_status = 'approved'
			 ORDER BY m.upload_date DESC`)
	}
	if err != nil {
		return nil, err
	}
	return collectMaterials(rows, true)
}

func (r *mysqlMaterialRepository) ListAll(ctx context.Context, status domain.ApprovalStatus) ([]domain.Material, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+materialColumns+`, u.name FROM study_materials m
			 JOIN users u ON m.uploaded_by = u.id
			 WHERE m.approval_status = ?
			 ORDER BY m.upload_date DESC`, status)
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+materialColumns+`, u.name FROM study_materials m
			 JOIN users u ON m.uploaded_by = u.id
			 ORDER BY m.upload_date DESC`)
	}
	if err != nil {
		return nil, err
	}
	return collectMaterials(rows, true)
}

func (r *mysqlMaterialRepository) ApprovedSubjects(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT subject FROM study_materials
		 WHERE approval_status = 'approved' ORDER BY subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// SetApproval records the transition unconditionally, so re-approving an
// already approved material keeps the status and refreshes actor/time.
func (r *mysqlMaterialRepository) SetApproval(ctx context.Context, id int64, status domain.ApprovalStatus, adminID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE study_materials
		 SET approval_status = ?, approved_by = ?, approval_date = ?
		 WHERE id = ?`,
		status, adminID, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update;
		// disambiguate with an existence probe.
		var exists int64
		if probe := r.db.QueryRowContext(ctx,
			"SELECT id FROM study_materials WHERE id = ? LIMIT 1", id).Scan(&exists); probe != nil {
			if errors.Is(probe, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			return probe
		}
	}
	return err
}

// IncrementDownloads is an unconditional +1; concurrent downloads may race
// and the tally is best-effort analytics, never overcounted per request.
func (r *mysqlMaterialRepository) IncrementDownloads(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE study_materials SET download_count = download_count + 1 WHERE id = ?", id)
	return err
}

func (r *mysqlMaterialRepository) UpdateDetails(ctx context.Context, id int64, title, subject, description string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE study_materials SET title = ?, subject = ?, description = ? WHERE id = ?",
		title, subject, description, id)
	return err
}

func (r *mysqlMaterialRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM study_materials WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return err
}

// DeleteByUploader removes every material owned by a user and returns the
// storage keys of the removed rows so the caller can clean up the files.
func (r *mysqlMaterialRepository) DeleteByUploader(ctx context.Context, uploaderID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT file_path FROM study_materials WHERE uploaded_by = ?", uploaderID)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		"DELETE FROM study_materials WHERE uploaded_by = ?", uploaderID)
	return keys, err
}

func (r *mysqlMaterialRepository) CountByStatus(ctx context.Context) (int64, map[domain.ApprovalStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT approval_status, COUNT(*) FROM study_materials GROUP BY approval_status")
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var total int64
	perStatus := make(map[domain.ApprovalStatus]int64)
	for rows.Next() {
		var status domain.ApprovalStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return 0, nil, err
		}
		perStatus[status] = n
		total += n
	}
	return total, perStatus, rows.Err()
}

func (r *mysqlMaterialRepository) TopSubjects(ctx context.Context, limit int) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT subject, COUNT(*) AS n FROM study_materials
		 GROUP BY subject ORDER BY n DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := make(map[string]int64)
	for rows.Next() {
		var subject string
		var n int64
		if err := rows.Scan(&subject, &n); err != nil {
			return nil, err
		}
		top[subject] = n
	}
	return top, rows.Err()
}
