package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/keizu/pkg/genealogy"
	"github.com/Ramsey-B/keizu/pkg/logging"
	"github.com/Ramsey-B/keizu/pkg/middleware"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/routes/health"
	"github.com/Ramsey-B/keizu/pkg/store/memory"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	logger := logging.Nop()
	store := memory.NewStore()
	resolver := genealogy.NewNameResolver(logger, store.Clans())
	trees := genealogy.NewTreeBuilder(logger, store.Samurai(), 0)

	return New(logger, Options{
		AppName: "keizu-test",
		Samurai: genealogy.NewSamuraiService(logger, store.Samurai(), store.Clans(), resolver, trees, nil),
		Clans:   genealogy.NewClanService(logger, store.Clans(), resolver, nil),
		Health:  health.NewChecker("test", map[string]health.Pinger{"store": store}),
	})
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSamurai(t *testing.T, e *echo.Echo, body string) models.Samurai {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/samurai", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Samurai](t, rec)
}

func TestSamuraiRoutes(t *testing.T) {
	t.Run("create, get and delete", func(t *testing.T) {
		e := newTestServer(t)

		created := createSamurai(t, e, `{"given_name":{"en":"Taro"},"family_name":{"en":"Yamada"}}`)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, models.NewLocalized("en", "Taro Yamada"), created.NickName)

		rec := do(t, e, http.MethodGet, "/api/v1/samurai/"+created.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created.ID, decode[models.Samurai](t, rec).ID)

		rec = do(t, e, http.MethodDelete, "/api/v1/samurai/"+created.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, e, http.MethodGet, "/api/v1/samurai/"+created.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		e := newTestServer(t)
		body := `{"given_name":{"en":"Taro"},"family_name":{"en":"Yamada"}}`

		createSamurai(t, e, body)
		rec := do(t, e, http.MethodPost, "/api/v1/samurai", body)
		assert.Equal(t, http.StatusConflict, rec.Code)

		resp := decode[middleware.ErrorResponse](t, rec)
		assert.NotEmpty(t, resp.RequestID)
		assert.Contains(t, resp.Message, "already exists")
	})

	t.Run("missing names are rejected", func(t *testing.T) {
		e := newTestServer(t)

		rec := do(t, e, http.MethodPost, "/api/v1/samurai", `{"given_name":{"en":"Taro"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, e, http.MethodPost, "/api/v1/samurai", `{"given_name":{},"family_name":{"en":"Yamada"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid enum is rejected", func(t *testing.T) {
		e := newTestServer(t)

		rec := do(t, e, http.MethodPost, "/api/v1/samurai", `{"given_name":{"en":"Taro"},"family_name":{"en":"Yamada"},"sex":"ROBOT"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("relationships and offspring tree", func(t *testing.T) {
		e := newTestServer(t)

		p1 := createSamurai(t, e, `{"given_name":{"en":"Yoshitomo"},"family_name":{"en":"Minamoto"}}`)
		p2 := createSamurai(t, e, `{"given_name":{"en":"Yoritomo"},"family_name":{"en":"Minamoto"},"birth_date":"1147-05-09"}`)
		p3 := createSamurai(t, e, `{"given_name":{"en":"Yoshitsune"},"family_name":{"en":"Minamoto"},"birth_date":"1159-01-01"}`)

		rec := do(t, e, http.MethodPost, "/api/v1/samurai/relationship",
			`{"parent_identifier":"`+p1.ID+`","child_identifier":"`+p2.ID+`"}`)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = do(t, e, http.MethodPost, "/api/v1/samurai/relationship/"+p1.ID+"/"+p3.ID+"?rType=ADOPTED", "")
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = do(t, e, http.MethodPost, "/api/v1/samurai/relationship/"+p1.ID+"/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, e, http.MethodGet, "/api/v1/samurai/offspring/"+p1.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var tree map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
		assert.Equal(t, p1.ID, tree["identifier"])
		assert.NotContains(t, tree, "relationship_type_with_parent")

		children := tree["children"].([]any)
		require.Len(t, children, 2)
		first := children[0].(map[string]any)
		assert.Equal(t, p2.ID, first["identifier"])
		assert.Equal(t, "BIOLOGICAL", first["relationship_type_with_parent"])
		assert.Equal(t, []any{}, first["children"])
		assert.Equal(t, "ADOPTED", children[1].(map[string]any)["relationship_type_with_parent"])
	})

	t.Run("search by nickname", func(t *testing.T) {
		e := newTestServer(t)
		createSamurai(t, e, `{"given_name":{"en":"Taro"},"family_name":{"en":"Yamada"}}`)

		rec := do(t, e, http.MethodGet, "/api/v1/samurai/search?nickname=yamada", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.Samurai](t, rec), 1)

		rec = do(t, e, http.MethodGet, "/api/v1/samurai/search", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("add to clan", func(t *testing.T) {
		e := newTestServer(t)
		s := createSamurai(t, e, `{"given_name":{"en":"Tokimune","jp":"時宗"},"family_name":{"en":"Hojo","jp":"北条"}}`)

		rec := do(t, e, http.MethodPost, "/api/v1/samurai/"+s.ID+"/clan/"+url.PathEscape("Taira"), "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		moved := decode[models.Samurai](t, rec)
		assert.NotEqual(t, s.ClanID, moved.ClanID)

		rec = do(t, e, http.MethodGet, "/api/v1/clan/name/Taira", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, moved.ClanID, decode[models.Clan](t, rec).ID)
	})
}

func TestClanRoutes(t *testing.T) {
	t.Run("resolve merges localized names", func(t *testing.T) {
		e := newTestServer(t)

		rec := do(t, e, http.MethodPost, "/api/v1/clan/resolve", `{"clan_name":{"en":"Minamoto"}}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		first := decode[models.Clan](t, rec)

		rec = do(t, e, http.MethodPost, "/api/v1/clan/resolve", `{"clan_name":{"en":"Minamoto","jp":"源"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		second := decode[models.Clan](t, rec)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, models.NewLocalized("en", "Minamoto", "jp", "源"), second.Name)

		rec = do(t, e, http.MethodGet, "/api/v1/clan/name/"+url.PathEscape("源"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, first.ID, decode[models.Clan](t, rec).ID)

		rec = do(t, e, http.MethodGet, "/api/v1/clan/exists/Minamoto", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[map[string]bool](t, rec)["exists"])
	})

	t.Run("strict create conflicts", func(t *testing.T) {
		e := newTestServer(t)

		rec := do(t, e, http.MethodPost, "/api/v1/clan", `{"clan_name":{"en":"Taira"}}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(t, e, http.MethodPost, "/api/v1/clan", `{"clan_name":{"jp":"平","en":"Taira"}}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = do(t, e, http.MethodPost, "/api/v1/clan", `{"clan_name":{}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update, link and delete", func(t *testing.T) {
		e := newTestServer(t)

		rec := do(t, e, http.MethodPost, "/api/v1/clan", `{"clan_name":{"en":"Minamoto"}}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		parent := decode[models.Clan](t, rec)

		rec = do(t, e, http.MethodPost, "/api/v1/clan", `{"clan_name":{"en":"Ashikaga"}}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		sub := decode[models.Clan](t, rec)

		rec = do(t, e, http.MethodPut, "/api/v1/clan/"+parent.ID, `{"clan_name":{"jp":"源"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.NewLocalized("en", "Minamoto", "jp", "源"), decode[models.Clan](t, rec).Name)

		rec = do(t, e, http.MethodPost, "/api/v1/clan/relationship/"+parent.ID+"/"+sub.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, e, http.MethodDelete, "/api/v1/clan/"+sub.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, e, http.MethodGet, "/api/v1/clan/"+sub.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOperationalRoutes(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = do(t, e, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
