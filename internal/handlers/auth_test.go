package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "correct horse",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)

	registered := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Ada", registered["name"])
	assert.Equal(t, "ada@example.com", registered["email"])

	// the hash, not the password, is stored
	var stored models.User
	require.NoError(t, env.conn.Where("email = ?", "ada@example.com").First(&stored).Error)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)

	w = env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)

	var token string

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	w = env.request(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	me := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", me["email"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "First",
		"email":    "owner@example.com", // seeded by newTestEnv
		"password": "longenough",
	}, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", decodeBody(t, w)["error"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "correct horse",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong battery",
	}, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, w)["error"])
}

func TestMeRejectsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/auth/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/projects", map[string]string{"name": "Prod"}, env.token)
	require.Equal(t, http.StatusCreated, w.Code)

	projectID := uint(decodeBody(t, w)["id"].(float64))

	w = env.request(t, http.MethodGet, "/api/projects", nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)

	// another user sees nothing
	other := models.User{Name: "Other", Email: "other@example.com", PasswordHash: "x"}
	require.NoError(t, env.conn.Create(&other).Error)
	otherToken, err := generateToken(other)
	require.NoError(t, err)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), nil, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), nil, env.token)
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, env.conn.Model(&models.Project{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
