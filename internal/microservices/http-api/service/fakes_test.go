package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/microservices/http-api/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errStoreDown = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

// fakeStore is an in-memory row store shared by the prompt, rating and comment fakes.
// Ratings are keyed by (prompt, user) the same way the table's primary key is.
type fakeStore struct {
	mu       sync.Mutex
	clock    time.Time
	prompts  map[string]models.Prompt
	ratings  map[ratingKey]models.Rating
	comments map[string]models.Comment

	ratingCalls int
	failWith    error
	upsertErr   error
}

type ratingKey struct {
	promptID string
	userID   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		prompts:  make(map[string]models.Prompt),
		ratings:  make(map[ratingKey]models.Rating),
		comments: make(map[string]models.Comment),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// seedPrompt inserts a prompt created by creatorID and returns its id
func (s *fakeStore) seedPrompt(creatorID, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	p := models.Prompt{
		ID:         uuid.NewString(),
		UserID:     creatorID,
		Title:      title,
		PromptText: "a prompt about " + title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.prompts[p.ID] = p
	return p.ID
}

func (s *fakeStore) hasPrompt(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.prompts[id]
	return ok
}

func (s *fakeStore) ratingRows(promptID string) []models.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.Rating
	for k, r := range s.ratings {
		if k.promptID == promptID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows
}

// fakePromptRepo

type fakePromptRepo struct{ *fakeStore }

var _ repository.PromptRepository = fakePromptRepo{}

func (r fakePromptRepo) Create(ctx context.Context, p *models.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	r.prompts[p.ID] = *p
	return nil
}

func (r fakePromptRepo) GetByID(ctx context.Context, id string) (*models.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	p, ok := r.prompts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r fakePromptRepo) GetCreatorID(ctx context.Context, id string) (string, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func (r fakePromptRepo) List(ctx context.Context) ([]models.Prompt, error) {
	return r.Search(ctx, "")
}

func (r fakePromptRepo) Search(ctx context.Context, query string) ([]models.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Prompt
	for _, p := range r.prompts {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		if q == "" || strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(desc), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakePromptRepo) UpdateOwned(ctx context.Context, id, ownerID string, changes repository.PromptChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	p, ok := r.prompts[id]
	if !ok || p.UserID != ownerID {
		return gorm.ErrRecordNotFound
	}
	p.Title = changes.Title
	p.Description = changes.Description
	p.PromptText = changes.PromptText
	p.UpdatedAt = r.tick()
	r.prompts[id] = p
	return nil
}

func (r fakePromptRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	p, ok := r.prompts[id]
	if !ok || p.UserID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.prompts, id)
	// ON DELETE CASCADE
	for k := range r.ratings {
		if k.promptID == id {
			delete(r.ratings, k)
		}
	}
	for cid, c := range r.comments {
		if c.PromptID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

// fakeRatingRepo

type fakeRatingRepo struct{ *fakeStore }

var _ repository.RatingRepository = fakeRatingRepo{}

func (r fakeRatingRepo) Upsert(ctx context.Context, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratingCalls++
	if r.failWith != nil {
		return r.failWith
	}
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if _, ok := r.prompts[rating.PromptID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	key := ratingKey{rating.PromptID, rating.UserID}
	now := r.tick()
	if existing, ok := r.ratings[key]; ok {
		existing.Value = rating.Value
		existing.UpdatedAt = now
		r.ratings[key] = existing
		return nil
	}
	rating.CreatedAt, rating.UpdatedAt = now, now
	r.ratings[key] = *rating
	return nil
}

func (r fakeRatingRepo) GetByUserAndPrompt(ctx context.Context, userID, promptID string) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratingCalls++
	if r.failWith != nil {
		return nil, r.failWith
	}
	rating, ok := r.ratings[ratingKey{promptID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rating, nil
}

func (r fakeRatingRepo) Summarize(ctx context.Context, promptID string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratingCalls++
	if r.failWith != nil {
		return 0, 0, r.failWith
	}
	var count, sum int64
	for k, rating := range r.ratings {
		if k.promptID == promptID {
			count++
			sum += int64(rating.Value)
		}
	}
	return count, sum, nil
}

// fakeCommentRepo

type fakeCommentRepo struct{ *fakeStore }

var _ repository.CommentRepository = fakeCommentRepo{}

func (r fakeCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.prompts[c.PromptID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.tick()
	r.comments[c.ID] = *c
	return nil
}

func (r fakeCommentRepo) ListByPrompt(ctx context.Context, promptID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []models.Comment
	for _, c := range r.comments {
		if c.PromptID == promptID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// fakeSummaryCache mirrors the versioned Redis layout in memory

type fakeSummaryCache struct {
	mu            sync.Mutex
	versions      map[string]int64
	entries       map[string]models.RatingSummary
	hits          int
	invalidateErr error
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{
		versions: make(map[string]int64),
		entries:  make(map[string]models.RatingSummary),
	}
}

func (c *fakeSummaryCache) key(promptID string, version int64) string {
	return fmt.Sprintf("%s:v%d", promptID, version)
}

func (c *fakeSummaryCache) Lookup(ctx context.Context, promptID string) (models.RatingSummary, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.versions[promptID]
	s, ok := c.entries[c.key(promptID, v)]
	if ok {
		c.hits++
	}
	return s, v, ok, nil
}

func (c *fakeSummaryCache) Store(ctx context.Context, promptID string, version int64, s models.RatingSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(promptID, version)] = s
	return nil
}

func (c *fakeSummaryCache) Invalidate(ctx context.Context, promptID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.versions[promptID]++
	return nil
}

// fakeBlobStore records uploads

type fakeBlobStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func (b *fakeBlobStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if b.uploads == nil {
		b.uploads = make(map[string][]byte)
	}
	b.uploads[name] = data
	return "https://images.example.com/" + name, nil
}
