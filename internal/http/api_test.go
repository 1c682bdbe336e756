package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"usersvc/internal/auth"
	"usersvc/internal/repository/sqlite"
	"usersvc/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := service.NewUserService(repo, auth.NewPasswordHasher(bcrypt.MinCost), logger)
	handler := NewHandler(users, "test-secret", time.Minute)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAlice(t *testing.T, router *gin.Engine) UserResponse {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func loginAlice(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/login", gin.H{
		"username": "alice",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndGet(t *testing.T) {
	router := newTestRouter(t)

	created := registerAlice(t, router)
	assert.Positive(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.True(t, created.IsActive)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var fetched UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "alice@example.com", fetched.Email)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing password must be rejected")

	w = doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"username": "alice",
		"email":    "not-an-email",
		"password": "Secret123!",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "username", resp.Field)
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)
	created := registerAlice(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/login", gin.H{
		"username": "alice",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, created.ID, resp.User.ID)
}

func TestLoginFailureIsUniform(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)

	wrongPass := doJSON(t, router, http.MethodPost, "/api/login", gin.H{
		"username": "alice",
		"password": "wrong",
	}, "")
	unknownUser := doJSON(t, router, http.MethodPost, "/api/login", gin.H{
		"username": "mallory",
		"password": "Secret123!",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, wrongPass.Body.String(), unknownUser.Body.String(),
		"responses must not reveal whether the user exists")
}

func TestListUsers(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
			"username": fmt.Sprintf("user%d", i),
			"email":    fmt.Sprintf("user%d@example.com", i),
			"password": "Secret123!",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/users?offset=0&limit=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page []UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page, 2)
	assert.Less(t, page[0].ID, page[1].ID)

	w = doJSON(t, router, http.MethodGet, "/api/users?offset=2&limit=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page, 1)
}

func TestUpdateRequiresToken(t *testing.T) {
	router := newTestRouter(t)
	created := registerAlice(t, router)

	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/users/%d", created.ID), gin.H{
		"full_name": "Alice Doe",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/users/%d", created.ID), gin.H{
		"full_name": "Alice Doe",
	}, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateUser(t *testing.T) {
	router := newTestRouter(t)
	created := registerAlice(t, router)
	token := loginAlice(t, router)

	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/users/%d", created.ID), gin.H{
		"full_name": "Alice Doe",
		"email":     "alice@new.example.com",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Alice Doe", updated.FullName)
	assert.Equal(t, "alice@new.example.com", updated.Email)
	assert.Equal(t, "alice", updated.Username)
}

func TestDeleteUser(t *testing.T) {
	router := newTestRouter(t)
	created := registerAlice(t, router)
	token := loginAlice(t, router)

	path := fmt.Sprintf("/api/users/%d", created.ID)

	w := doJSON(t, router, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUserBadID(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/users/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
