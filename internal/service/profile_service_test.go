package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aves/lms-app/internal/domain"
)

func newTestProfileService(repo *fakeProfileRepo, store *fakeStorage) ProfileService {
	return NewProfileService(repo, store, []string{"png", "jpg", "jpeg"})
}

func TestProfileGetDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestProfileService(newFakeProfileRepo(), newFakeStorage())

	actor := Identity{UserID: 4, Email: "s@example.com", Name: "Sam", Role: domain.RoleStudent}
	profile, err := svc.Get(ctx, actor)
	require.NoError(t, err)

	student, ok := profile.(domain.StudentProfile)
	require.True(t, ok, "student gets the student variant")
	assert.Equal(t, "Sam", student.Name)
	assert.Equal(t, "s@example.com", student.Email)
	assert.Empty(t, student.RegisterNumber)
}

func TestProfileSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	svc := newTestProfileService(repo, newFakeStorage())

	actor := Identity{UserID: 4, Email: "t@example.com", Name: "Tess", Role: domain.RoleTeacher}
	saved, err := svc.Save(ctx, actor, ProfileInput{
		Phone:          "555-0100",
		Department:     "Physics",
		Posting:        "Senior Lecturer",
		Specialization: "Optics",
	})
	require.NoError(t, err)

	teacher, ok := saved.(domain.TeacherProfile)
	require.True(t, ok)
	assert.Equal(t, "Physics", teacher.Department)
	assert.Equal(t, "Tess", teacher.Name, "empty name falls back to the session name")

	got, err := svc.Get(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestProfileSavePhoto(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	store := newFakeStorage()
	svc := newTestProfileService(repo, store)

	actor := Identity{UserID: 4, Email: "s@example.com", Name: "Sam", Role: domain.RoleStudent}

	saved, err := svc.Save(ctx, actor, ProfileInput{
		Department: "CS",
		Photo:      &PhotoUpload{FileName: "me.PNG", Size: 3, Content: strings.NewReader("img")},
	})
	require.NoError(t, err)
	require.NotNil(t, saved.Photo())
	firstPhoto := *saved.Photo()
	assert.True(t, strings.HasPrefix(firstPhoto, "profiles/"))
	assert.True(t, strings.HasSuffix(firstPhoto, ".png"))
	assert.True(t, store.has(firstPhoto))

	// Saving without a photo keeps the stored one.
	saved, err = svc.Save(ctx, actor, ProfileInput{Department: "Math"})
	require.NoError(t, err)
	require.NotNil(t, saved.Photo())
	assert.Equal(t, firstPhoto, *saved.Photo())

	// A replacement photo removes the old file.
	saved, err = svc.Save(ctx, actor, ProfileInput{
		Department: "Math",
		Photo:      &PhotoUpload{FileName: "new.jpg", Size: 3, Content: strings.NewReader("img")},
	})
	require.NoError(t, err)
	require.NotNil(t, saved.Photo())
	assert.NotEqual(t, firstPhoto, *saved.Photo())
	assert.False(t, store.has(firstPhoto))
	assert.True(t, store.has(*saved.Photo()))
}

func TestProfileSaveRejectsBadPhotoType(t *testing.T) {
	ctx := context.Background()
	svc := newTestProfileService(newFakeProfileRepo(), newFakeStorage())

	actor := Identity{UserID: 4, Role: domain.RoleStudent, Name: "Sam"}
	_, err := svc.Save(ctx, actor, ProfileInput{
		Photo: &PhotoUpload{FileName: "script.svg", Size: 3, Content: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, ErrPhotoTypeNotAllowed)
}

func TestProfileOpenPhoto(t *testing.T) {
	ctx := context.Background()
	store := newFakeStorage()
	svc := newTestProfileService(newFakeProfileRepo(), store)

	actor := Identity{UserID: 4, Role: domain.RoleStudent, Name: "Sam"}

	_, err := svc.OpenPhoto(ctx, actor)
	assert.ErrorIs(t, err, ErrProfilePhotoNotFound)

	_, err = svc.Save(ctx, actor, ProfileInput{
		Photo: &PhotoUpload{FileName: "me.png", Size: 3, Content: strings.NewReader("img")},
	})
	require.NoError(t, err)

	content, err := svc.OpenPhoto(ctx, actor)
	require.NoError(t, err)
	content.Close()
}
