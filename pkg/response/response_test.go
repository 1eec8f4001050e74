package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vetclinic/pkg/errors"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorMapsAppErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.NotFound("Conversation", nil), http.StatusNotFound, "NOT_FOUND"},
		{apperrors.Forbidden("not a participant", nil), http.StatusForbidden, "FORBIDDEN"},
		{apperrors.BadRequest("content required", nil), http.StatusBadRequest, "BAD_REQUEST"},
		{apperrors.Unauthorized("Authentication required", nil), http.StatusUnauthorized, "UNAUTHORIZED"},
		{apperrors.Internal("store down", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		c, rec := newContext()
		require.NoError(t, Error(c, tc.err))
		assert.Equal(t, tc.status, rec.Code)
		body := decode(t, rec)
		assert.False(t, body.Success)
		assert.Equal(t, tc.code, body.Error.Code)
	}
}

func TestErrorSetsRetryAfter(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, Error(c, apperrors.TooManyRequests("slow down", 1500*time.Millisecond)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestErrorHandlesEchoHTTPError(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, Error(c, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Equal(t, "Authorization header is required", body.Error.Message)
}

func TestErrorHandlesValidation(t *testing.T) {
	type req struct {
		RecipientID string `validate:"required"`
	}
	err := validator.New().Struct(req{})
	require.Error(t, err)

	c, rec := newContext()
	require.NoError(t, Error(c, err))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "recipientid is required", body.Error.Message)
}

func TestPaginated(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, Paginated(c, []string{"a", "b"}, 5, 1, 2))
	body := decode(t, rec)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, float64(3), data["totalPages"])
}
