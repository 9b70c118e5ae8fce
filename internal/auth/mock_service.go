package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is an in-memory AuthServiceInterface for handler tests.
// Tokens have the form "mock_token_<user id>".
type MockAuthService struct {
	mu sync.Mutex

	Calls []MockCall

	RegisterFunc             func(req RegisterRequest) (*AuthResponse, error)
	LoginFunc                func(req LoginRequest) (*AuthResponse, error)
	GoogleAuthURLFunc        func(state string) (string, error)
	HandleGoogleCallbackFunc func(code string) (*AuthResponse, error)

	// DefaultError is returned by every method that has no override
	DefaultError error

	users map[string]*models.User // keyed by lowercased email
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{users: make(map[string]*models.User)}
}

func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// AddUser adds a user and returns the token that authenticates as it
func (m *MockAuthService) AddUser(user *models.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[strings.ToLower(user.Email)] = user
	return MockToken(user)
}

// MockToken is the token the mock accepts for user
func MockToken(user *models.User) string {
	return "mock_token_" + user.ID
}

func (m *MockAuthService) respond(user *models.User) *AuthResponse {
	return &AuthResponse{Token: MockToken(user), User: *user, ExpiresAt: time.Now().Add(TokenTTL)}
}

func (m *MockAuthService) Register(_ context.Context, req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	_, exists := m.users[strings.ToLower(req.Email)]
	m.mu.Unlock()
	if exists {
		return nil, ErrUserExists
	}

	user := &models.User{Email: req.Email, Handle: GenerateHandle(req.DisplayName), DisplayName: req.DisplayName}
	m.AddUser(user)
	return m.respond(user), nil
}

func (m *MockAuthService) Login(_ context.Context, req LoginRequest) (*AuthResponse, error) {
	m.recordCall("Login", req)
	if m.LoginFunc != nil {
		return m.LoginFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	m.mu.Lock()
	user, exists := m.users[strings.ToLower(req.Email)]
	m.mu.Unlock()
	if !exists {
		return nil, ErrInvalidCredentials
	}
	return m.respond(user), nil
}

func (m *MockAuthService) Authenticate(_ context.Context, token string) (*models.User, error) {
	m.recordCall("Authenticate", token)
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if MockToken(user) == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrInvalidToken
}

func (m *MockAuthService) GoogleAuthURL(state string) (string, error) {
	m.recordCall("GoogleAuthURL", state)
	if m.GoogleAuthURLFunc != nil {
		return m.GoogleAuthURLFunc(state)
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state, nil
}

func (m *MockAuthService) HandleGoogleCallback(_ context.Context, code string) (*AuthResponse, error) {
	m.recordCall("HandleGoogleCallback", code)
	if m.HandleGoogleCallbackFunc != nil {
		return m.HandleGoogleCallbackFunc(code)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return nil, ErrInvalidCredentials
}

// Ensure MockAuthService implements AuthServiceInterface
var _ AuthServiceInterface = (*MockAuthService)(nil)
