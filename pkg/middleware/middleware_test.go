package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/keizu/pkg/appctx"
)

func newEcho(handler echo.HandlerFunc) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.Use(Logger(logger))
	e.GET("/test", handler)
	return e
}

func serve(e *echo.Echo, requestID string) (*httptest.ResponseRecorder, ErrorResponse) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if requestID != "" {
		req.Header.Set(echo.HeaderXRequestID, requestID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestError(t *testing.T) {
	t.Run("httperror keeps its status and message", func(t *testing.T) {
		e := newEcho(func(c echo.Context) error {
			return httperror.NewHTTPErrorf(http.StatusConflict, "clan %q already exists", "Taira")
		})

		rec, body := serve(e, "req-1")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, body.Message, `clan "Taira" already exists`)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("echo errors keep their status", func(t *testing.T) {
		e := newEcho(func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusBadRequest, "bad input")
		})

		rec, body := serve(e, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad input", body.Message)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		e := newEcho(func(c echo.Context) error {
			return errors.New("connection reset")
		})

		rec, body := serve(e, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", body.Message)
	})
}

func TestContext(t *testing.T) {
	var requestID, route, userID string
	e := newEcho(func(c echo.Context) error {
		ctx := c.Request().Context()
		requestID = appctx.GetRequestID(ctx)
		route = appctx.GetRoute(ctx)
		userID = appctx.GetUserID(ctx)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-2")
	req.Header.Set(HeaderUserID, "user-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-2", requestID)
	assert.Equal(t, "/test", route)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "req-2", rec.Header().Get(echo.HeaderXRequestID))
}
