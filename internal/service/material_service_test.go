package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aves/lms-app/internal/domain"
)

var testAllowedExtensions = []string{"pdf", "docx", "zip", "txt"}

func newTestMaterialService(repo *fakeMaterialRepo, store *fakeStorage) MaterialService {
	return NewMaterialService(repo, store, testAllowedExtensions, 1024)
}

func uploadInput(name string, size int64) UploadInput {
	return UploadInput{
		Title:    "Algebra Notes",
		Subject:  "Math",
		FileName: name,
		Size:     size,
		Content:  strings.NewReader("content"),
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	store := newFakeStorage()
	svc := newTestMaterialService(repo, store)

	m, err := svc.Upload(ctx, 1, uploadInput("lecture one.PDF", 7))
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, domain.StatusPending, m.ApprovalStatus)
	assert.Equal(t, "lecture one.PDF", m.OriginalName)
	assert.True(t, strings.HasPrefix(m.FilePath, "materials/"))
	assert.True(t, strings.HasSuffix(m.FilePath, ".pdf"), "storage key uses the lowercased extension")
	assert.NotContains(t, m.FilePath, "lecture", "storage key must not reuse the client filename")
	assert.True(t, store.has(m.FilePath))
}

func TestUploadValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestMaterialService(newFakeMaterialRepo(), newFakeStorage())

	tests := []struct {
		name    string
		mutate  func(*UploadInput)
		wantErr error
	}{
		{name: "missing title", mutate: func(in *UploadInput) { in.Title = "  " }, wantErr: ErrTitleRequired},
		{name: "missing subject", mutate: func(in *UploadInput) { in.Subject = "" }, wantErr: ErrSubjectRequired},
		{name: "no file", mutate: func(in *UploadInput) { in.FileName = ""; in.Content = nil }, wantErr: ErrNoFileProvided},
		{name: "bad extension", mutate: func(in *UploadInput) { in.FileName = "malware.exe" }, wantErr: ErrFileTypeNotAllowed},
		{name: "no extension", mutate: func(in *UploadInput) { in.FileName = "README" }, wantErr: ErrFileTypeNotAllowed},
		{name: "too large", mutate: func(in *UploadInput) { in.Size = 4096 }, wantErr: ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := uploadInput("notes.pdf", 7)
			tt.mutate(&in)
			_, err := svc.Upload(ctx, 1, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUploadStorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	store := newFakeStorage()
	store.saveErr = errors.New("disk full")
	svc := newTestMaterialService(repo, store)

	_, err := svc.Upload(ctx, 1, uploadInput("notes.pdf", 7))
	require.Error(t, err)

	materials, _, err := svc.ListForTeacher(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, materials, "no row is created when the file never lands")
}

func TestApproveRejectFlow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	svc := newTestMaterialService(repo, newFakeStorage())

	m, err := svc.Upload(ctx, 1, uploadInput("notes.pdf", 7))
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, 99, m.ID))
	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.ApprovalStatus)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, int64(99), *got.ApprovedBy)
	assert.NotNil(t, got.ApprovalDate)

	// Re-approving is allowed and just refreshes the audit fields.
	require.NoError(t, svc.Approve(ctx, 100, m.ID))
	got, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.ApprovalStatus)
	assert.Equal(t, int64(100), *got.ApprovedBy)

	require.NoError(t, svc.Reject(ctx, 99, m.ID, "duplicate upload"))
	got, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.ApprovalStatus)

	assert.ErrorIs(t, svc.Approve(ctx, 99, 404), ErrMaterialNotFound)
}

func TestListForStudentOnlyApproved(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	svc := newTestMaterialService(repo, newFakeStorage())

	approved, err := svc.Upload(ctx, 1, uploadInput("a.pdf", 7))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, 1, uploadInput("b.pdf", 7))
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, 9, approved.ID))

	visible, err := svc.ListForStudent(ctx, "")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, approved.ID, visible[0].ID)
}

func TestListForTeacherStats(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	svc := newTestMaterialService(repo, newFakeStorage())

	first, err := svc.Upload(ctx, 1, uploadInput("a.pdf", 7))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, 1, uploadInput("b.pdf", 7))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, 2, uploadInput("other.pdf", 7))
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, 9, first.ID))

	materials, stats, err := svc.ListForTeacher(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, materials, 2)
	assert.Equal(t, TeacherStats{Total: 2, Pending: 1, Approved: 1}, stats)
}

func TestListAllPagination(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	svc := newTestMaterialService(repo, newFakeStorage())

	for i := 0; i < 5; i++ {
		_, err := svc.Upload(ctx, 1, uploadInput("a.pdf", 7))
		require.NoError(t, err)
	}

	page1, totalPages, err := svc.ListAll(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.Equal(t, 3, totalPages)

	page3, _, err := svc.ListAll(ctx, "", 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	beyond, _, err := svc.ListAll(ctx, "", 9, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestUpdateDetailsOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	svc := newTestMaterialService(repo, newFakeStorage())

	m, err := svc.Upload(ctx, 1, uploadInput("a.pdf", 7))
	require.NoError(t, err)

	owner := Identity{UserID: 1, Role: domain.RoleTeacher}
	other := Identity{UserID: 2, Role: domain.RoleTeacher}
	admin := Identity{UserID: 3, Role: domain.RoleAdmin}

	assert.ErrorIs(t, svc.UpdateDetails(ctx, other, m.ID, "X", "Y", ""), ErrNotAuthorized)
	require.NoError(t, svc.UpdateDetails(ctx, owner, m.ID, "New Title", "Physics", "desc"))
	require.NoError(t, svc.UpdateDetails(ctx, admin, m.ID, "Admin Title", "Physics", "desc"))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin Title", got.Title)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	store := newFakeStorage()
	svc := newTestMaterialService(repo, store)

	m, err := svc.Upload(ctx, 1, uploadInput("a.pdf", 7))
	require.NoError(t, err)

	other := Identity{UserID: 2, Role: domain.RoleTeacher}
	assert.ErrorIs(t, svc.Delete(ctx, other, m.ID), ErrNotAuthorized)
	assert.True(t, store.has(m.FilePath), "denied delete must not touch the file")

	owner := Identity{UserID: 1, Role: domain.RoleTeacher}
	require.NoError(t, svc.Delete(ctx, owner, m.ID))
	assert.False(t, store.has(m.FilePath))
	_, err = repo.GetByID(ctx, m.ID)
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	store := newFakeStorage()
	svc := newTestMaterialService(repo, store)

	m, err := svc.Upload(ctx, 1, uploadInput("week1.pdf", 7))
	require.NoError(t, err)

	student := Identity{UserID: 5, Role: domain.RoleStudent}

	// Pending material is invisible to students.
	_, err = svc.Download(ctx, student, m.ID)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	require.NoError(t, svc.Approve(ctx, 9, m.ID))

	result, err := svc.Download(ctx, student, m.ID)
	require.NoError(t, err)
	defer result.Content.Close()
	assert.Equal(t, "week1.pdf", result.FileName)

	data, err := io.ReadAll(result.Content)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)
}

func TestDownloadCountsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	store := newFakeStorage()
	svc := newTestMaterialService(repo, store)

	m, err := svc.Upload(ctx, 1, uploadInput("week1.pdf", 7))
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, 9, m.ID))

	// Unauthorized attempt: student door stays shut on a later reject.
	require.NoError(t, svc.Reject(ctx, 9, m.ID, ""))
	student := Identity{UserID: 5, Role: domain.RoleStudent}
	_, err = svc.Download(ctx, student, m.ID)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	// Missing file: authorized but nothing to stream.
	require.NoError(t, store.Delete(ctx, m.FilePath))
	owner := Identity{UserID: 1, Role: domain.RoleTeacher}
	_, err = svc.Download(ctx, owner, m.ID)
	assert.ErrorIs(t, err, ErrMaterialFileMissing)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, got.DownloadCount, "failed downloads must not count")
}

func TestDownloadTeacherSeesOwnPending(t *testing.T) {
	ctx := context.Background()
	repo := newFakeMaterialRepo()
	svc := newTestMaterialService(repo, newFakeStorage())

	m, err := svc.Upload(ctx, 1, uploadInput("draft.pdf", 7))
	require.NoError(t, err)

	owner := Identity{UserID: 1, Role: domain.RoleTeacher}
	result, err := svc.Download(ctx, owner, m.ID)
	require.NoError(t, err)
	result.Content.Close()

	otherTeacher := Identity{UserID: 2, Role: domain.RoleTeacher}
	_, err = svc.Download(ctx, otherTeacher, m.ID)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	admin := Identity{UserID: 3, Role: domain.RoleAdmin}
	result, err = svc.Download(ctx, admin, m.ID)
	require.NoError(t, err)
	result.Content.Close()
}
