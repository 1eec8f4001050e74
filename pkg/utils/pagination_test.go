package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=10", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p := GetPaginationParams(c)
	assert.Equal(t, PaginationParams{Page: 3, PageSize: 10, Offset: 20}, p)
}

func TestNewPaginationParamsDefaults(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}, NewPaginationParams(0, 0))
	assert.Equal(t, DefaultPageSize, NewPaginationParams(1, MaxPageSize+1).PageSize)
}
