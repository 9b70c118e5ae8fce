package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenTTL is the lifetime of issued access tokens
const TokenTTL = 24 * time.Hour

var (
	ErrUserExists         = errors.New("user already exists")
	ErrHandleTaken        = errors.New("could not allocate a unique handle")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("validation failed")
)

// Service handles all authentication operations
type Service struct {
	users     repository.UserRepository
	jwtSecret []byte
	google    *GoogleOAuth
	now       func() time.Time
	newHandle func(displayName string) string
	cost      int
}

// NewService creates a new authentication service. google may be nil when
// OAuth is not configured.
func NewService(users repository.UserRepository, jwtSecret []byte, google *GoogleOAuth) *Service {
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
		google:    google,
		now:       time.Now,
		newHandle: GenerateHandle,
		cost:      bcrypt.DefaultCost,
	}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents native registration request
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Location    string `json:"location"`
}

// LoginRequest represents native login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ValidationError names the offending field of a request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (r RegisterRequest) validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if len(r.Password) < 8 || len(r.Password) > 72 {
		return &ValidationError{Field: "password", Message: "must be 8-72 characters"}
	}
	name := strings.TrimSpace(r.DisplayName)
	if name == "" || len([]rune(name)) > 50 {
		return &ValidationError{Field: "display_name", Message: "must be 1-50 characters"}
	}
	return nil
}

// Register creates a password account. A handle collision is retried
// exactly once with a freshly generated handle; a duplicate email is
// reported as ErrUserExists.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	newUser := func() *models.User {
		return &models.User{
			Email:        strings.TrimSpace(req.Email),
			Handle:       s.newHandle(req.DisplayName),
			DisplayName:  strings.TrimSpace(req.DisplayName),
			PasswordHash: &hash,
			Location:     strings.TrimSpace(req.Location),
		}
	}

	user, err := s.createUser(ctx, newUser)
	if err != nil {
		return nil, err
	}
	return s.IssueToken(user)
}

// createUser inserts build()'s user, retrying once on a handle conflict
func (s *Service) createUser(ctx context.Context, build func() *models.User) (*models.User, error) {
	for attempt := 0; attempt < 2; attempt++ {
		user := build()
		err := s.users.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		// The insert can collide on email or handle; only the latter is retried.
		if _, lookupErr := s.users.GetUserByEmail(ctx, user.Email); lookupErr == nil {
			return nil, ErrUserExists
		} else if !errors.Is(lookupErr, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", lookupErr)
		}
		logger.Log.Info("Handle collision, regenerating", zap.String("handle", user.Handle), zap.Int("attempt", attempt+1))
	}
	return nil, ErrHandleTaken
}

// Login authenticates with email/password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.IssueToken(user)
}

// IssueToken signs an HS256 token for user
func (s *Service) IssueToken(user *models.User) (*AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(TokenTTL)

	claims := jwt.MapClaims{
		"sub":     user.ID,
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{Token: signed, User: *user, ExpiresAt: expiresAt}, nil
}

// ValidateToken verifies the signature and expiry and returns the user id
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return userID, nil
}

// Authenticate validates the token and loads a fresh copy of its user
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return user, nil
}

// GoogleAuthURL returns the consent URL, or ErrOAuthNotConfigured
func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrOAuthNotConfigured
	}
	return s.google.AuthCodeURL(state), nil
}

// HandleGoogleCallback exchanges the code and signs the matching user in,
// creating an account on first login.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*AuthResponse, error) {
	if s.google == nil {
		return nil, ErrOAuthNotConfigured
	}
	info, err := s.google.UserInfo(ctx, code)
	if err != nil {
		return nil, err
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, info.Email)
	if err == nil {
		return s.IssueToken(user)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	name := info.Name
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}
	user, err = s.createUser(ctx, func() *models.User {
		return &models.User{
			Email:       info.Email,
			Handle:      s.newHandle(name),
			DisplayName: name,
		}
	})
	if err != nil {
		return nil, err
	}
	return s.IssueToken(user)
}
