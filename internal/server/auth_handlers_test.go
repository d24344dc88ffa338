package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	_, app := setupServer(t)

	resp := doRequest(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Token string `json:"token"`
		User  struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "alice@example.com", created.User.Email)

	// Log in with the username instead of the email.
	resp = doRequest(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"identifier": "alice",
		"password":   "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &login)
	assert.NotEmpty(t, login.Token)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv, app := setupServer(t)
	createUser(t, srv, "alice", "PUBLIC")

	resp := doRequest(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"identifier": "alice",
		"password":   "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, app := setupServer(t)

	resp := doRequest(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	srv, app := setupServer(t)
	createUser(t, srv, "alice", "PUBLIC")

	resp := doRequest(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	_, app := setupServer(t)

	resp := doRequest(t, app, fiber.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
