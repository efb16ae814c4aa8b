package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(store *fakeStore) CommentService {
	return NewCommentService(fakeCommentRepo{store}, fakePromptRepo{store}, discardLogger())
}

func TestCreateComment(t *testing.T) {
	store := newFakeStore()
	svc := newCommentService(store)
	p := store.seedPrompt(userA.ID, "talk")

	c, err := svc.CreateComment(context.Background(), userB, p, "  love the lighting  ")

	require.NoError(t, err)
	assert.Equal(t, "love the lighting", c.Content)
	assert.Equal(t, userB.ID, c.UserID)
	assert.Equal(t, userB.Handle, c.User.Username)
	assert.Equal(t, p, c.PromptID)
}

func TestCreateComment_Rejected(t *testing.T) {
	store := newFakeStore()
	svc := newCommentService(store)
	p := store.seedPrompt(userA.ID, "talk")
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, nil, p, "hi")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.CreateComment(ctx, userB, p, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateComment(ctx, userB, p, strings.Repeat("a", maxCommentLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateComment(ctx, userB, uuid.NewString(), "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, store.comments)
}

func TestGetPromptComments_NewestFirst(t *testing.T) {
	store := newFakeStore()
	svc := newCommentService(store)
	p := store.seedPrompt(userA.ID, "thread")
	other := store.seedPrompt(userA.ID, "elsewhere")
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.CreateComment(ctx, userB, p, text)
		require.NoError(t, err)
	}
	_, err := svc.CreateComment(ctx, userC, other, "unrelated")
	require.NoError(t, err)

	comments, err := svc.GetPromptComments(ctx, p)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "third", comments[0].Content)
	assert.Equal(t, "first", comments[2].Content)

	_, err = svc.GetPromptComments(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
