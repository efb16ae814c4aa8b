package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"prompterest/internal/metrics"
	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/shared"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userA = &shared.Identity{ID: "9b2f6c1e-1d55-4c8e-9a51-0f8c2b6d7a01", Handle: "alice"}
	userB = &shared.Identity{ID: "4e7d2a90-63b1-4f0c-8d2e-5b9a1c3f6e02", Handle: "bob"}
	userC = &shared.Identity{ID: "c1a83f57-0b6e-4d9a-b7c4-2e5f8d9a0b03", Handle: "carol"}
)

type ratingFixture struct {
	store   *fakeStore
	cache   *fakeSummaryCache
	metrics *metrics.Metrics
	svc     RatingService
}

func newRatingFixture(t *testing.T) *ratingFixture {
	t.Helper()
	store := newFakeStore()
	c := newFakeSummaryCache()
	m := metrics.NewMetrics()
	return &ratingFixture{
		store:   store,
		cache:   c,
		metrics: m,
		svc:     NewRatingService(fakeRatingRepo{store}, fakePromptRepo{store}, c, discardLogger(), m),
	}
}

func avg(v float64) *float64 { return &v }

func TestSubmitRating_Scenario(t *testing.T) {
	f := newRatingFixture(t)
	ctx := context.Background()
	p := f.store.seedPrompt(userA.ID, "neon city")

	summary, err := f.svc.SubmitRating(ctx, userB, p, 4)
	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{Average: avg(4.0), Count: 1}, summary)

	summary, err = f.svc.SubmitRating(ctx, userC, p, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{Average: avg(3.0), Count: 2}, summary)

	summary, err = f.svc.SubmitRating(ctx, userB, p, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{Average: avg(3.5), Count: 2}, summary)

	rows := f.store.ratingRows(p)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r.UserID == userB.ID {
			assert.Equal(t, 5, r.Value)
		}
	}

	got, err := f.svc.GetSummary(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, summary, got)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.RatingSubmissionsTotal.WithLabelValues("accepted")))
}

func TestSubmitRating_OverwriteKeepsOneRow(t *testing.T) {
	f := newRatingFixture(t)
	ctx := context.Background()
	p := f.store.seedPrompt(userA.ID, "forest")

	for _, v := range []int{1, 3, 3, 2} {
		_, err := f.svc.SubmitRating(ctx, userB, p, v)
		require.NoError(t, err)
	}

	rows := f.store.ratingRows(p)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Value)
	assert.Equal(t, userB.ID, rows[0].UserID)
}

func TestSubmitRating_CreatorMayRateOwnPrompt(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "self")

	summary, err := f.svc.SubmitRating(context.Background(), userA, p, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
}

func TestSubmitRating_Anonymous(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "anon")

	_, err := f.svc.SubmitRating(context.Background(), nil, p, 4)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, f.store.ratingRows(p))
	assert.Zero(t, f.store.ratingCalls)
}

func TestSubmitRating_OutOfRange(t *testing.T) {
	for _, v := range []int{0, 6, -1, 100} {
		f := newRatingFixture(t)
		p := f.store.seedPrompt(userA.ID, "range")

		_, err := f.svc.SubmitRating(context.Background(), userB, p, v)

		assert.ErrorIs(t, err, ErrInvalidInput, "value %d", v)
		assert.Empty(t, f.store.ratingRows(p))
		assert.Zero(t, f.store.ratingCalls, "no store call for value %d", v)
	}
}

func TestSubmitRating_UnknownPrompt(t *testing.T) {
	f := newRatingFixture(t)

	_, err := f.svc.SubmitRating(context.Background(), userB, uuid.NewString(), 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.SubmitRating(context.Background(), userB, "not-a-uuid", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitRating_PromptDeletedBeforeWrite(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "gone")
	// the existence check passes but the insert trips the foreign key
	svc := NewRatingService(racingRatingRepo{fakeRatingRepo{f.store}, p}, fakePromptRepo{f.store}, f.cache, discardLogger(), nil)

	_, err := svc.SubmitRating(context.Background(), userB, p, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

// racingRatingRepo deletes the prompt right before the upsert runs
type racingRatingRepo struct {
	fakeRatingRepo
	promptID string
}

func (r racingRatingRepo) Upsert(ctx context.Context, rating *models.Rating) error {
	r.mu.Lock()
	delete(r.prompts, r.promptID)
	r.mu.Unlock()
	return r.fakeRatingRepo.Upsert(ctx, rating)
}

func TestSubmitRating_StoreUnavailable(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "down")
	f.store.upsertErr = errStoreDown

	_, err := f.svc.SubmitRating(context.Background(), userB, p, 3)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RatingSubmissionsTotal.WithLabelValues("store_error")))
}

func TestSubmitRating_InvalidatesCachedSummary(t *testing.T) {
	f := newRatingFixture(t)
	ctx := context.Background()
	p := f.store.seedPrompt(userA.ID, "cached")

	_, err := f.svc.SubmitRating(ctx, userB, p, 2)
	require.NoError(t, err)

	// warm the cache
	first, err := f.svc.GetSummary(ctx, p)
	require.NoError(t, err)
	_, err = f.svc.GetSummary(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.svc.SubmitRating(ctx, userC, p, 4)
	require.NoError(t, err)

	second, err := f.svc.GetSummary(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Count)
	assert.Equal(t, models.RatingSummary{Average: avg(3.0), Count: 2}, second)
}

func TestSubmitRating_InvalidateFailureStillReturnsFreshSummary(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "flaky cache")
	f.cache.invalidateErr = errors.New("redis: connection pool timeout")

	summary, err := f.svc.SubmitRating(context.Background(), userB, p, 5)

	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{Average: avg(5.0), Count: 1}, summary)
}

func TestSubmitRating_ConcurrentSameRater(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "race")

	var wg sync.WaitGroup
	for v := 1; v <= 5; v++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_, err := f.svc.SubmitRating(context.Background(), userB, p, v)
			assert.NoError(t, err)
		}(v)
	}
	wg.Wait()

	rows := f.store.ratingRows(p)
	require.Len(t, rows, 1)
	assert.GreaterOrEqual(t, rows[0].Value, 1)
	assert.LessOrEqual(t, rows[0].Value, 5)
}

func TestGetSummary_NoRatings(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "quiet")

	summary, err := f.svc.GetSummary(context.Background(), p)

	require.NoError(t, err)
	assert.Nil(t, summary.Average, "no ratings is not an average of 0")
	assert.Zero(t, summary.Count)
	assert.False(t, summary.HasRatings())
}

func TestGetSummary_OrphanedRatingsIgnored(t *testing.T) {
	f := newRatingFixture(t)
	orphan := uuid.NewString()
	f.store.ratings[ratingKey{orphan, userB.ID}] = models.Rating{PromptID: orphan, UserID: userB.ID, Value: 5}

	summary, err := f.svc.GetSummary(context.Background(), orphan)

	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{}, summary)
}

func TestGetSummary_MalformedID(t *testing.T) {
	f := newRatingFixture(t)

	summary, err := f.svc.GetSummary(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{}, summary)
	assert.Zero(t, f.store.ratingCalls)
}

func TestGetSummary_StoreUnavailable(t *testing.T) {
	f := newRatingFixture(t)
	p := f.store.seedPrompt(userA.ID, "down")
	f.store.failWith = errStoreDown

	_, err := f.svc.GetSummary(context.Background(), p)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestGetSummary_WithoutCache(t *testing.T) {
	store := newFakeStore()
	svc := NewRatingService(fakeRatingRepo{store}, fakePromptRepo{store}, nil, nil, nil)
	p := store.seedPrompt(userA.ID, "no cache")

	_, err := svc.SubmitRating(context.Background(), userB, p, 3)
	require.NoError(t, err)

	summary, err := svc.GetSummary(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, models.RatingSummary{Average: avg(3.0), Count: 1}, summary)
}

func TestGetUserRating(t *testing.T) {
	f := newRatingFixture(t)
	ctx := context.Background()
	p := f.store.seedPrompt(userA.ID, "mine")

	rating, err := f.svc.GetUserRating(ctx, userB, p)
	require.NoError(t, err)
	assert.Nil(t, rating, "unrated")

	_, err = f.svc.SubmitRating(ctx, userB, p, 4)
	require.NoError(t, err)

	rating, err = f.svc.GetUserRating(ctx, userB, p)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, 4, rating.Value)

	_, err = f.svc.GetUserRating(ctx, nil, p)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.GetUserRating(ctx, userB, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
