package handler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/microservices/http-api/service"
	"prompterest/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

const (
	aliceToken = "token-alice"
	bobToken   = "token-bob"
	promptID   = "3f1c9a0e-5b7d-4e2a-9c61-8d4b2f7e1a10"
)

var (
	alice = &shared.Identity{ID: "9b2f6c1e-1d55-4c8e-9a51-0f8c2b6d7a01", Handle: "alice"}
	bob   = &shared.Identity{ID: "4e7d2a90-63b1-4f0c-8d2e-5b9a1c3f6e02", Handle: "bob"}
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	args := m.Called(username, password, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*shared.Identity, error) {
	switch tokenString {
	case aliceToken:
		return alice, nil
	case bobToken:
		return bob, nil
	}
	return nil, service.ErrInvalidToken
}

func (m *MockAuthService) AccessTokenTTL() time.Duration {
	return 24 * time.Hour
}

type MockPromptService struct {
	mock.Mock
}

func (m *MockPromptService) Create(ctx context.Context, actor *shared.Identity, in service.CreatePromptInput) (*models.Prompt, error) {
	args := m.Called(actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prompt), args.Error(1)
}

func (m *MockPromptService) Get(ctx context.Context, actor *shared.Identity, id string) (*service.PromptDetail, error) {
	args := m.Called(actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PromptDetail), args.Error(1)
}

func (m *MockPromptService) List(ctx context.Context, query string) ([]models.Prompt, error) {
	args := m.Called(query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Prompt), args.Error(1)
}

func (m *MockPromptService) EditForm(ctx context.Context, actor *shared.Identity, id string) (*models.Prompt, error) {
	args := m.Called(actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prompt), args.Error(1)
}

func (m *MockPromptService) Update(ctx context.Context, actor *shared.Identity, id string, in service.UpdatePromptInput) (*models.Prompt, error) {
	args := m.Called(actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prompt), args.Error(1)
}

func (m *MockPromptService) Delete(ctx context.Context, actor *shared.Identity, id string) error {
	args := m.Called(actor, id)
	return args.Error(0)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) SubmitRating(ctx context.Context, actor *shared.Identity, promptID string, value int) (models.RatingSummary, error) {
	args := m.Called(actor, promptID, value)
	return args.Get(0).(models.RatingSummary), args.Error(1)
}

func (m *MockRatingService) GetSummary(ctx context.Context, promptID string) (models.RatingSummary, error) {
	args := m.Called(promptID)
	return args.Get(0).(models.RatingSummary), args.Error(1)
}

func (m *MockRatingService) GetUserRating(ctx context.Context, actor *shared.Identity, promptID string) (*models.Rating, error) {
	args := m.Called(actor, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) CreateComment(ctx context.Context, actor *shared.Identity, promptID, content string) (*models.Comment, error) {
	args := m.Called(actor, promptID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) GetPromptComments(ctx context.Context, promptID string) ([]models.Comment, error) {
	args := m.Called(promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

type testAPI struct {
	auth     *MockAuthService
	prompts  *MockPromptService
	ratings  *MockRatingService
	comments *MockCommentService
	router   *gin.Engine
}

func newTestAPI(ping func(context.Context) error) *testAPI {
	return newTestAPIWithUploadLimit(ping, 0)
}

func newTestAPIWithUploadLimit(ping func(context.Context) error, maxUploadBytes int64) *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		auth:     new(MockAuthService),
		prompts:  new(MockPromptService),
		ratings:  new(MockRatingService),
		comments: new(MockCommentService),
	}
	api.router = NewRouter(RouterDeps{
		Auth:     api.auth,
		Prompts:  api.prompts,
		Ratings:  api.ratings,
		Comments: api.comments,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Ping:     ping,

		MaxUploadBytes: maxUploadBytes,
	})
	return api
}
