package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prompterest/internal/config"
	"prompterest/internal/middleware/auth"
	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/microservices/http-api/repository"
	"prompterest/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrNameInUse          = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailInUse         = errors.New("email already in use")
)

const accessTokenType = "access"

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	Login(ctx context.Context, username, password string) (accessToken string, user *models.User, err error)
	ValidateToken(tokenString string) (*shared.Identity, error)
	AccessTokenTTL() time.Duration
}

type authService struct {
	userRepo       repository.UserRepository
	jwtSecret      string
	accessTokenTTL time.Duration
	now            func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{
		userRepo:       userRepo,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: ttl,
		now:            time.Now,
	}
}

// Register: registers a new user with the given username, password, and email.
func (s *authService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	// Check if user exists
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrNameInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("find user", err)
	}

	// Check if email exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("find user", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, invalidInput("password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.conflictingField(ctx, username)
		}
		return nil, storeErr("create user", err)
	}

	return user, nil
}

// conflictingField reports which unique column a concurrent registration took.
// Only username and email are unique, so a free username means the email collided.
func (s *authService) conflictingField(ctx context.Context, username string) error {
	if _, err := s.userRepo.FindByUsername(ctx, username); errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEmailInUse
	}
	return ErrNameInUse
}

// Login: authenticates a user and returns a signed access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, storeErr("find user", err)
		}
		auth.BurnVerify(password)
		return "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return token, user, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		shared.ClaimUserID:   user.ID,
		shared.ClaimUsername: user.Username,
		shared.ClaimType:     accessTokenType,
		"exp":                now.Add(s.accessTokenTTL).Unix(),
		"iat":                now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken verifies signature and expiry and returns the identity the token carries
func (s *authService) ValidateToken(tokenString string) (*shared.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if typ, _ := claims[shared.ClaimType].(string); typ != accessTokenType {
		return nil, ErrInvalidToken
	}
	userID, _ := claims[shared.ClaimUserID].(string)
	if !validID(userID) {
		return nil, ErrInvalidToken
	}
	username, _ := claims[shared.ClaimUsername].(string)

	return &shared.Identity{ID: userID, Handle: username}, nil
}

func (s *authService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}
