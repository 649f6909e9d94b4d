package models

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidationError("bad input"), fiber.StatusBadRequest},
		{NewUnauthorizedError("no token"), fiber.StatusUnauthorized},
		{NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{NewConflictError("taken"), fiber.StatusConflict},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), "code %s", tt.err.Code)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/notfound", func(c *fiber.Ctx) error {
		return RespondWithError(c, NewNotFoundError("Post", 7))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, errors.New("raw error"))
	})

	t.Run("app error maps to its status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notfound", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown error becomes 500", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/internal", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}
