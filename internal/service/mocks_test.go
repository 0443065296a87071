package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
	"aves/lms-app/internal/storage"
)

// In-memory fakes for the repository and storage interfaces. They keep
// just enough state for the service tests; SQL-level behavior has its
// own layer.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	u := *user
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

func (f *fakeUserRepo) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for id := int64(1); id <= f.nextID; id++ {
		u, ok := f.users[id]
		if !ok {
			continue
		}
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id int64, name, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for otherID, other := range f.users {
		if otherID != id && other.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	u.Name, u.Email = name, email
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CountByRole(ctx context.Context) (int64, map[domain.Role]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	perRole := make(map[domain.Role]int64)
	for _, u := range f.users {
		perRole[u.Role]++
	}
	return int64(len(f.users)), perRole, nil
}

func (f *fakeUserRepo) SignupsPerDay(ctx context.Context, days int) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64)
	for _, u := range f.users {
		out[u.CreatedAt.Format("2006-01-02")]++
	}
	return out, nil
}

type fakeMaterialRepo struct {
	mu        sync.Mutex
	nextID    int64
	materials map[int64]domain.Material
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{materials: make(map[int64]domain.Material)}
}

func (f *fakeMaterialRepo) Create(ctx context.Context, m *domain.Material) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	stored := *m
	stored.ID = f.nextID
	f.materials[stored.ID] = stored
	return stored.ID, nil
}

func (f *fakeMaterialRepo) GetByID(ctx context.Context, id int64) (*domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.materials[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := m
	return &out, nil
}

func (f *fakeMaterialRepo) ListByUploader(ctx context.Context, uploaderID int64) ([]domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Material
	for id := int64(1); id <= f.nextID; id++ {
		if m, ok := f.materials[id]; ok && m.UploadedBy == uploaderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMaterialRepo) ListApproved(ctx context.Context, subject string) ([]domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Material
	for id := int64(1); id <= f.nextID; id++ {
		m, ok := f.materials[id]
		if !ok || m.ApprovalStatus != domain.StatusApproved {
			continue
		}
		if subject != "" && !strings.EqualFold(m.Subject, subject) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMaterialRepo) ListAll(ctx context.Context, status domain.ApprovalStatus) ([]domain.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Material
	for id := int64(1); id <= f.nextID; id++ {
		if m, ok := f.materials[id]; ok && (status == "" || m.ApprovalStatus == status) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMaterialRepo) ApprovedSubjects(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for id := int64(1); id <= f.nextID; id++ {
		m, ok := f.materials[id]
		if !ok || m.ApprovalStatus != domain.StatusApproved || seen[m.Subject] {
			continue
		}
		seen[m.Subject] = true
		out = append(out, m.Subject)
	}
	return out, nil
}

func (f *fakeMaterialRepo) SetApproval(ctx context.Context, id int64, status domain.ApprovalStatus, adminID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.materials[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.ApprovalStatus = status
	m.ApprovedBy = &adminID
	m.ApprovalDate = &at
	f.materials[id] = m
	return nil
}

func (f *fakeMaterialRepo) IncrementDownloads(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.materials[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.DownloadCount++
	f.materials[id] = m
	return nil
}

func (f *fakeMaterialRepo) UpdateDetails(ctx context.Context, id int64, title, subject, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.materials[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Title, m.Subject, m.Description = title, subject, description
	f.materials[id] = m
	return nil
}

func (f *fakeMaterialRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.materials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.materials, id)
	return nil
}

func (f *fakeMaterialRepo) DeleteByUploader(ctx context.Context, uploaderID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for id, m := range f.materials {
		if m.UploadedBy == uploaderID {
			keys = append(keys, m.FilePath)
			delete(f.materials, id)
		}
	}
	return keys, nil
}

func (f *fakeMaterialRepo) CountByStatus(ctx context.Context) (int64, map[domain.ApprovalStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	perStatus := make(map[domain.ApprovalStatus]int64)
	for _, m := range f.materials {
		perStatus[m.ApprovalStatus]++
	}
	return int64(len(f.materials)), perStatus, nil
}

func (f *fakeMaterialRepo) TopSubjects(ctx context.Context, limit int) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64)
	for _, m := range f.materials {
		if m.ApprovalStatus == domain.StatusApproved {
			out[m.Subject] += m.DownloadCount
		}
	}
	return out, nil
}

// fakeStorage keeps file contents in a map and counts operations.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Save(ctx context.Context, key string, content io.Reader, size int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// fakeProfileStore backs one role's profiles in memory.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[int64]domain.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[int64]domain.Profile)}
}

func (f *fakeProfileStore) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileStore) Upsert(ctx context.Context, p domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// A nil photo keeps whatever the stored profile has, mirroring the
	// fixed-shape SQL update.
	if p.Photo() == nil {
		if old, ok := f.profiles[p.Owner()]; ok && old.Photo() != nil {
			p = withPhoto(p, old.Photo())
		}
	}
	f.profiles[p.Owner()] = p
	return nil
}

func withPhoto(p domain.Profile, photo *string) domain.Profile {
	switch v := p.(type) {
	case domain.StudentProfile:
		v.PhotoPath = photo
		return v
	case domain.TeacherProfile:
		v.PhotoPath = photo
		return v
	case domain.AdminProfile:
		v.PhotoPath = photo
		return v
	}
	return p
}

func (f *fakeProfileStore) DeleteByUser(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, userID)
	return nil
}

type fakeProfileRepo struct {
	stores map[domain.Role]*fakeProfileStore
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{stores: map[domain.Role]*fakeProfileStore{
		domain.RoleStudent: newFakeProfileStore(),
		domain.RoleTeacher: newFakeProfileStore(),
		domain.RoleAdmin:   newFakeProfileStore(),
	}}
}

func (f *fakeProfileRepo) ForRole(role domain.Role) (repository.ProfileStore, bool) {
	store, ok := f.stores[role]
	return store, ok
}
