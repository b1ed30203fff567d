package mocks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/imaging"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
)

// CallLog records calls across several mocks so tests can assert ordering.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *CallLog) Add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *CallLog) Calls() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	mu     sync.Mutex
	Posts  map[model.PostID]*model.Post
	Log    *CallLog
	nextID int

	InsertError error
	UpdateError error
	DeleteError error
	ListError   error

	Inserted []model.PostFields
	Updated  []model.PostFields
	Deleted  []model.PostID

	// Now stamps created_at and updated_at.
	Now func() time.Time
}

var _ repository.PostRepository = (*MockPostRepository)(nil)

func NewMockPostRepository(log *CallLog) *MockPostRepository {
	return &MockPostRepository{
		Posts: make(map[model.PostID]*model.Post),
		Log:   log,
		Now:   time.Now,
	}
}

// Seed stores p as an existing post.
func (m *MockPostRepository) Seed(p model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	m.Posts[p.ID] = &cp
}

func (m *MockPostRepository) InsertPost(ctx context.Context, fields model.PostFields) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Log.Add("insert:" + fields.Slug)
	m.Inserted = append(m.Inserted, fields)
	if m.InsertError != nil {
		return nil, m.InsertError
	}

	m.nextID++
	now := m.Now()
	p := postFromFields(model.PostID(fmt.Sprintf("post-%d", m.nextID)), fields)
	p.CreatedAt = now
	p.UpdatedAt = now
	m.Posts[p.ID] = &p
	return &p, nil
}

func (m *MockPostRepository) UpdatePost(ctx context.Context, id model.PostID, fields model.PostFields) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Log.Add("update:" + string(id))
	m.Updated = append(m.Updated, fields)
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}

	existing, ok := m.Posts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	p := postFromFields(id, fields)
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = m.Now()
	m.Posts[id] = &p
	return &p, nil
}

func (m *MockPostRepository) DeletePost(ctx context.Context, id model.PostID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Log.Add("delete-post:" + string(id))
	m.Deleted = append(m.Deleted, id)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.Posts[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(m.Posts, id)
	return nil
}

func (m *MockPostRepository) ListPosts(ctx context.Context, minCreatedAt *time.Time) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if minCreatedAt != nil {
		m.Log.Add("list:" + minCreatedAt.UTC().Format(time.RFC3339))
	} else {
		m.Log.Add("list")
	}
	if m.ListError != nil {
		return nil, m.ListError
	}

	posts := make([]model.Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		if minCreatedAt != nil && p.CreatedAt.Before(*minCreatedAt) {
			continue
		}
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (m *MockPostRepository) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.Posts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPostRepository) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func postFromFields(id model.PostID, f model.PostFields) model.Post {
	return model.Post{
		ID:          id,
		Title:       f.Title,
		Slug:        f.Slug,
		Content:     f.Content,
		Description: f.Description,
		YoutubeURL:  f.YoutubeURL,
		ImageURL:    f.ImageURL,
		Tags:        slices.Clone(f.Tags),
	}
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Log     *CallLog
	BaseURL string

	UploadError error
	DeleteError error

	Uploaded []string
	Removed  []string
}

var _ repository.ImageStore = (*MockImageStore)(nil)

func NewMockImageStore(log *CallLog) *MockImageStore {
	return &MockImageStore{
		Objects: make(map[string][]byte),
		Log:     log,
		BaseURL: "https://cdn.example.com/post-images",
	}
}

func (m *MockImageStore) UploadImage(ctx context.Context, objectName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Log.Add("upload:" + objectName)
	m.Uploaded = append(m.Uploaded, objectName)
	if m.UploadError != nil {
		return m.UploadError
	}
	m.Objects[objectName] = slices.Clone(data)
	return nil
}

func (m *MockImageStore) PublicURL(objectName string) string {
	return m.BaseURL + "/" + objectName
}

func (m *MockImageStore) DeleteImage(ctx context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Log.Add("delete-image:" + objectName)
	m.Removed = append(m.Removed, objectName)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Objects, objectName)
	return nil
}

// MockCompressor returns Result (or Err) for every image. When Block is set,
// Compress waits until it is closed.
type MockCompressor struct {
	Result *imaging.Result
	Err    error
	Block  chan struct{}

	mu    sync.Mutex
	Calls int
}

func (m *MockCompressor) Compress(data []byte) (*imaging.Result, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.Block != nil {
		<-m.Block
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &imaging.Result{Data: data, ContentType: "image/png", Ext: "png"}, nil
}
