package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/database"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret-key-for-jwt")

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	users   repository.UserRepository
	service *Service
	ctx     context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(s.T(), err)
	s.db = db
	s.users = repository.NewUserRepository(db)
	s.service = NewService(s.users, testSecret, nil)
	s.service.cost = bcrypt.MinCost
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *AuthServiceTestSuite) register(email, name string) *AuthResponse {
	resp, err := s.service.Register(s.ctx, RegisterRequest{Email: email, Password: "correct-horse", DisplayName: name})
	s.Require().NoError(err)
	return resp
}

func (s *AuthServiceTestSuite) TestRegisterAndLogin() {
	resp := s.register("asha@example.com", "Asha Rao")
	s.NotEmpty(resp.Token)
	s.Equal("asha@example.com", resp.User.Email)
	s.Regexp(`^asha-rao-[0-9a-f]{4}$`, resp.User.Handle)

	login, err := s.service.Login(s.ctx, LoginRequest{Email: "ASHA@example.com", Password: "correct-horse"})
	s.Require().NoError(err)
	s.Equal(resp.User.ID, login.User.ID)
}

func (s *AuthServiceTestSuite) TestLoginFailuresLookTheSame() {
	s.register("ravi@example.com", "Ravi")

	_, err := s.service.Login(s.ctx, LoginRequest{Email: "ravi@example.com", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginWithoutPasswordHash() {
	s.Require().NoError(s.users.CreateUser(s.ctx, &models.User{Email: "oauth@example.com", Handle: "oauth-1", DisplayName: "OAuth"}))
	_, err := s.service.Login(s.ctx, LoginRequest{Email: "oauth@example.com", Password: "anything1"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("meera@example.com", "Meera")
	_, err := s.service.Register(s.ctx, RegisterRequest{Email: "Meera@Example.com", Password: "another-pass", DisplayName: "Meera Two"})
	s.ErrorIs(err, ErrUserExists)
}

func (s *AuthServiceTestSuite) TestRegisterRetriesHandleCollisionOnce() {
	s.Require().NoError(s.users.CreateUser(s.ctx, &models.User{Email: "first@example.com", Handle: "taken", DisplayName: "First"}))

	calls := 0
	s.service.newHandle = func(string) string {
		calls++
		if calls == 1 {
			return "taken"
		}
		return "fresh"
	}

	resp := s.register("second@example.com", "Second")
	s.Equal("fresh", resp.User.Handle)
	s.Equal(2, calls)
}

func (s *AuthServiceTestSuite) TestRegisterGivesUpAfterSecondCollision() {
	s.Require().NoError(s.users.CreateUser(s.ctx, &models.User{Email: "first@example.com", Handle: "taken", DisplayName: "First"}))
	s.service.newHandle = func(string) string { return "taken" }

	_, err := s.service.Register(s.ctx, RegisterRequest{Email: "second@example.com", Password: "correct-horse", DisplayName: "Second"})
	s.ErrorIs(err, ErrHandleTaken)
}

func (s *AuthServiceTestSuite) TestRegisterValidation() {
	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "long-enough", DisplayName: "A"}, "email"},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", DisplayName: "A"}, "password"},
		{"blank name", RegisterRequest{Email: "a@example.com", Password: "long-enough", DisplayName: "  "}, "display_name"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Register(s.ctx, tt.req)
			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tt.field, verr.Field)
			s.ErrorIs(err, ErrValidation)
		})
	}
}

func (s *AuthServiceTestSuite) TestAuthenticateRoundTrip() {
	resp := s.register("kiran@example.com", "Kiran")

	user, err := s.service.Authenticate(s.ctx, resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, user.ID)

	_, err = s.service.Authenticate(s.ctx, resp.Token+"x")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestExpiredTokenRejected() {
	resp := s.register("dev@example.com", "Dev")
	s.service.now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }

	_, err := s.service.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestTokenWithOtherAlgorithmRejected() {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "someone",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(signed)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestGoogleNotConfigured() {
	_, err := s.service.GoogleAuthURL("state")
	s.ErrorIs(err, ErrOAuthNotConfigured)

	_, err = s.service.HandleGoogleCallback(s.ctx, "code")
	s.ErrorIs(err, ErrOAuthNotConfigured)
}

func (s *AuthServiceTestSuite) TestGoogleCallbackCreatesThenReusesUser() {
	server := fakeGoogle(s.T(), GoogleUserInfo{Sub: "g-1", Email: "lata@example.com", EmailVerified: true, Name: "Lata M"})
	s.service.google = newTestGoogle(server)

	first, err := s.service.HandleGoogleCallback(s.ctx, "code-1")
	s.Require().NoError(err)
	s.Equal("lata@example.com", first.User.Email)
	s.Regexp(`^lata-m-`, first.User.Handle)

	second, err := s.service.HandleGoogleCallback(s.ctx, "code-2")
	s.Require().NoError(err)
	s.Equal(first.User.ID, second.User.ID)
}

func (s *AuthServiceTestSuite) TestGoogleCallbackRequiresVerifiedEmail() {
	server := fakeGoogle(s.T(), GoogleUserInfo{Sub: "g-2", Email: "x@example.com", EmailVerified: false})
	s.service.google = newTestGoogle(server)

	_, err := s.service.HandleGoogleCallback(s.ctx, "code")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func fakeGoogle(t *testing.T, info GoogleUserInfo) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-" + r.FormValue("code"),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(info)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestGoogle(server *httptest.Server) *GoogleOAuth {
	g := NewGoogleOAuth(&oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"},
	})
	g.userInfoURL = server.URL + "/userinfo"
	return g
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Asha Rao":                     "asha-rao",
		"  Émile   Zola!! ":            "mile-zola",
		"!!!":                          "neighbour",
		"abcdefghijklmnopqrstuvwxyz12": "abcdefghijklmnopqrstuvwxyz12",
		"Block 4, HSR":                 "block-4-hsr",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestGenerateHandleCapsBase(t *testing.T) {
	handle := GenerateHandle("Koramangala Residents Welfare")
	assert.Regexp(t, `^koramangala-resident-[0-9a-f]{4}$`, handle)

	handle = GenerateHandle("Koramangala Residents")
	assert.Regexp(t, `^koramangala-resident-[0-9a-f]{4}$`, handle)

	assert.Equal(t, "ab", Truncate("ab-cd", 3), "no trailing dash")
	assert.Equal(t, "short", Truncate("short", 20))
}

func TestNilGoogleConfig(t *testing.T) {
	assert.Nil(t, NewGoogleOAuth(nil))
}

func TestMockAuthService(t *testing.T) {
	m := NewMockAuthService()
	token := m.AddUser(&models.User{Email: "a@example.com", Handle: "a"})

	user, err := m.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Len(t, m.GetCallsForMethod("Authenticate"), 1)

	_, err = m.Register(context.Background(), RegisterRequest{Email: "A@example.com", Password: "long-enough", DisplayName: "A"})
	assert.ErrorIs(t, err, ErrUserExists)
}
