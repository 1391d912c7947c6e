package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tasktracker/internal/handler"
	"tasktracker/internal/middleware"
	"tasktracker/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository - мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*model.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*model.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func setupUserRouter(t *testing.T, repo *MockUserRepository, userID *uuid.UUID) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	gin.SetMode(gin.TestMode)
	h := handler.NewUserHandler(repo)

	router := gin.New()
	if userID != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.UserIDKey, *userID)
			c.Next()
		})
	}

	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/auth/me", h.Me)
	router.PUT("/api/user/profile", h.UpdateProfile)
	router.PUT("/api/user/password", h.ChangePassword)
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserHandler_Register_Success(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	router := setupUserRouter(t, repo, nil)

	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	// Act - email нормализуется к нижнему регистру
	w := performJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "New@Example.com",
		"password": "secret123",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.User.ID)

	repo.AssertExpectations(t)
}

func TestUserHandler_Register_EmailTaken(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	router := setupUserRouter(t, repo, nil)

	existing := &model.User{ID: uuid.New(), Email: "taken@example.com"}
	repo.On("FindByEmail", mock.Anything, "taken@example.com").Return(existing, nil)

	// Act
	w := performJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Bob",
		"email":    "taken@example.com",
		"password": "secret123",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserHandler_Register_InvalidInput(t *testing.T) {
	repo := new(MockUserRepository)
	router := setupUserRouter(t, repo, nil)

	cases := []struct {
		name string
		body gin.H
	}{
		{"short password", gin.H{"name": "Alice", "email": "a@example.com", "password": "123"}},
		{"bad email", gin.H{"name": "Alice", "email": "not-an-email", "password": "secret123"}},
		{"short name", gin.H{"name": "A", "email": "a@example.com", "password": "secret123"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performJSON(t, router, http.MethodPost, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUserHandler_Login_Success(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	router := setupUserRouter(t, repo, nil)

	user := &model.User{
		ID:             uuid.New(),
		Email:          "alice@example.com",
		Name:           "Alice",
		HashedPassword: hashPassword(t, "secret123"),
	}
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	// Act
	w := performJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID.String(), resp.User.ID)
}

func TestUserHandler_Login_InvalidCredentials(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	router := setupUserRouter(t, repo, nil)

	user := &model.User{
		ID:             uuid.New(),
		Email:          "alice@example.com",
		HashedPassword: hashPassword(t, "secret123"),
	}
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	// Act / Assert - неверный пароль и неизвестный email дают одинаковый ответ
	w := performJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = performJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ghost@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestUserHandler_Me(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	userID := uuid.New()
	router := setupUserRouter(t, repo, &userID)

	user := &model.User{ID: userID, Email: "alice@example.com", Name: "Alice"}
	repo.On("GetByID", mock.Anything, userID).Return(user, nil)

	// Act
	req, err := http.NewRequest(http.MethodGet, "/api/auth/me", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, userID.String(), resp.ID)
	assert.Equal(t, "Alice", resp.Name)
}

func TestUserHandler_UpdateProfile_EmailTaken(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	userID := uuid.New()
	router := setupUserRouter(t, repo, &userID)

	user := &model.User{ID: userID, Email: "alice@example.com", Name: "Alice"}
	repo.On("GetByID", mock.Anything, userID).Return(user, nil)
	repo.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: uuid.New()}, nil)

	// Act
	w := performJSON(t, router, http.MethodPut, "/api/user/profile", gin.H{
		"email": "taken@example.com",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserHandler_UpdateProfile_Success(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	userID := uuid.New()
	router := setupUserRouter(t, repo, &userID)

	user := &model.User{ID: userID, Email: "alice@example.com", Name: "Alice"}
	repo.On("GetByID", mock.Anything, userID).Return(user, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	// Act
	w := performJSON(t, router, http.MethodPut, "/api/user/profile", gin.H{
		"name": "Alice Cooper",
	})

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Alice Cooper", resp.Name)
	repo.AssertExpectations(t)
}

func TestUserHandler_ChangePassword_WrongCurrent(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	userID := uuid.New()
	router := setupUserRouter(t, repo, &userID)

	user := &model.User{ID: userID, HashedPassword: hashPassword(t, "secret123")}
	repo.On("GetByID", mock.Anything, userID).Return(user, nil)

	// Act
	w := performJSON(t, router, http.MethodPut, "/api/user/password", gin.H{
		"currentPassword": "wrong",
		"newPassword":     "newsecret",
	})

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Current password is incorrect")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserHandler_ChangePassword_Success(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	userID := uuid.New()
	router := setupUserRouter(t, repo, &userID)

	user := &model.User{ID: userID, HashedPassword: hashPassword(t, "secret123")}
	repo.On("GetByID", mock.Anything, userID).Return(user, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	// Act
	w := performJSON(t, router, http.MethodPut, "/api/user/password", gin.H{
		"currentPassword": "secret123",
		"newPassword":     "newsecret",
	})

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Password updated successfully")

	// Хэш в записи заменен и соответствует новому паролю
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("newsecret")))
	repo.AssertExpectations(t)
}
