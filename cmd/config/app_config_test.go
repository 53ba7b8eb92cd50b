package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdatlt/foodgram/entities"
	"github.com/kdatlt/foodgram/internal/testutil"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func (a *apiClient) do(method, path, token string, body any) (*http.Response, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, data
}

func (a *apiClient) json(method, path, token string, body any, wantStatus int, out any) {
	a.t.Helper()
	resp, raw := a.do(method, path, token, body)
	require.Equal(a.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)
	if out == nil {
		return
	}
	var env envelope
	require.NoError(a.t, json.Unmarshal(raw, &env))
	require.NoError(a.t, json.Unmarshal(env.Data, out))
}

func (a *apiClient) signUp(username string) (uint, string) {
	a.t.Helper()
	var user struct {
		ID uint `json:"id"`
	}
	a.json(http.MethodPost, "/api/users/", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "s3cret-pass",
	}, http.StatusCreated, &user)

	var login struct {
		AuthToken string `json:"auth_token"`
	}
	a.json(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	}, http.StatusOK, &login)
	return user.ID, login.AuthToken
}

func TestRecipeFlowOverHTTP(t *testing.T) {
	db := testutil.NewTestDB(t)
	storage := testutil.NewFakeStorage()
	app := BuildApp(db, AppOptions{
		AppURL:          "http://foodgram.test",
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		ShortLinkLength: 6,
		Storage:         storage,
		Mailer:          &testutil.FakeMailer{},
	})
	api := &apiClient{t: t, app: app}

	flour := entities.Ingredient{Name: "flour", MeasurementUnit: "g"}
	require.NoError(t, db.Create(&flour).Error)
	tag := entities.Tag{Name: "Breakfast", Slug: "breakfast"}
	require.NoError(t, db.Create(&tag).Error)

	_, aliceToken := api.signUp("alice")
	bobID, bobToken := api.signUp("bob")

	payload := map[string]any{
		"ingredients":  []map[string]any{{"id": flour.ID, "amount": 200}},
		"tags":         []uint{tag.ID},
		"image":        testutil.PNGDataURI,
		"name":         "Bread",
		"text":         "Knead and bake.",
		"cooking_time": 60,
	}

	resp, _ := api.do(http.MethodPost, "/api/recipes/", "", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	invalid := map[string]any{}
	for k, v := range payload {
		invalid[k] = v
	}
	invalid["cooking_time"] = 0
	resp, _ = api.do(http.MethodPost, "/api/recipes/", aliceToken, invalid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var created struct {
		ID     uint `json:"id"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
		Ingredients []struct {
			Name   string `json:"name"`
			Amount int    `json:"amount"`
		} `json:"ingredients"`
	}
	api.json(http.MethodPost, "/api/recipes/", aliceToken, payload, http.StatusCreated, &created)
	assert.Equal(t, "alice", created.Author.Username)
	require.Len(t, created.Ingredients, 1)
	assert.Equal(t, 200, created.Ingredients[0].Amount)

	recipePath := fmt.Sprintf("/api/recipes/%d/", created.ID)

	var anonymous struct {
		IsFavorited bool `json:"is_favorited"`
	}
	api.json(http.MethodGet, recipePath, "", nil, http.StatusOK, &anonymous)
	assert.False(t, anonymous.IsFavorited)

	resp, _ = api.do(http.MethodPatch, recipePath, bobToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = api.do(http.MethodPatch, recipePath, bobToken, invalid)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = api.do(http.MethodPatch, recipePath, aliceToken, invalid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	api.json(http.MethodPost, recipePath+"favorite/", bobToken, nil, http.StatusCreated, nil)
	resp, _ = api.do(http.MethodPost, recipePath+"favorite/", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var viewed struct {
		IsFavorited bool `json:"is_favorited"`
	}
	api.json(http.MethodGet, recipePath, bobToken, nil, http.StatusOK, &viewed)
	assert.True(t, viewed.IsFavorited)

	resp, _ = api.do(http.MethodDelete, recipePath+"favorite/", bobToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = api.do(http.MethodDelete, recipePath+"favorite/", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	api.json(http.MethodPost, recipePath+"shopping_cart/", bobToken, nil, http.StatusCreated, nil)
	resp, body := api.do(http.MethodGet, "/api/recipes/download_shopping_cart/", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "flour (g) - 200\n", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	var link struct {
		ShortLink string `json:"short-link"`
	}
	api.json(http.MethodGet, recipePath+"get-link/", "", nil, http.StatusOK, &link)
	require.True(t, strings.HasPrefix(link.ShortLink, "http://foodgram.test/s/"))

	resp, _ = api.do(http.MethodGet, strings.TrimPrefix(link.ShortLink, "http://foodgram.test"), "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("http://foodgram.test/recipes/%d/", created.ID), resp.Header.Get("Location"))

	resp, _ = api.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", bobID), bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(http.MethodGet, "/api/recipes/999/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(http.MethodDelete, recipePath, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, storage.Len())

	resp, body = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "foodgram_http_requests_total")
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	app := BuildApp(testutil.NewTestDB(t), AppOptions{
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		Storage:   testutil.NewFakeStorage(),
		Mailer:    &testutil.FakeMailer{},
	})
	api := &apiClient{t: t, app: app}

	resp, _ := api.do(http.MethodGet, "/api/recipes/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var page struct {
		Results    []json.RawMessage `json:"results"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
		} `json:"pagination"`
	}
	api.json(http.MethodGet, "/api/recipes/", "", nil, http.StatusOK, &page)
	assert.Empty(t, page.Results)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 6, page.Pagination.Limit)
}
