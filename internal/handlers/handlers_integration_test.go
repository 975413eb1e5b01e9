package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/or73/Async-API-Pizza-Delivery/internal/app"
	"github.com/or73/Async-API-Pizza-Delivery/internal/config"
	"github.com/or73/Async-API-Pizza-Delivery/internal/logger"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

// envelope mirrors handlers.Envelope with the data left raw.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type client struct {
	t   *testing.T
	app *app.App
}

// setupApp wires the whole service over an SQLite file in a temp dir.
func setupApp(t *testing.T, env map[string]string) *client {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sql")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "shop.db"))
	t.Setenv("HASH_COST", "4")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.DB.Close() })
	return &client{t: t, app: a}
}

func (c *client) do(method, target string, headers map[string]string, body any) envelope {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.app.Fiber.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(c.t, resp.StatusCode, env.StatusCode, "envelope status matches the HTTP status")
	return env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (c *client) signUp(email string) map[string]string {
	c.t.Helper()
	env := c.do(http.MethodPost, "/users", nil, map[string]string{
		"email": email, "password": "pw", "name": "A", "address": "X",
	})
	require.Equal(c.t, http.StatusCreated, env.StatusCode, env.Message)

	created := decode[struct {
		User  models.User      `json:"user"`
		Token models.TokenView `json:"token"`
	}](c.t, env)
	require.Len(c.t, created.Token.TokenID, 20)
	return map[string]string{"email": email, "token": created.Token.TokenID}
}

func TestShopScenario(t *testing.T) {
	c := setupApp(t, nil)

	// sign up
	env := c.do(http.MethodPost, "/users", nil, map[string]string{
		"email": "a@b.com", "password": "pw", "name": "A", "address": "X",
	})
	require.Equal(t, http.StatusCreated, env.StatusCode)
	created := decode[map[string]map[string]any](t, env)
	assert.NotContains(t, created["user"], "password")
	assert.Len(t, created["token"]["tokenId"], 20)
	auth := map[string]string{"email": "a@b.com", "token": created["token"]["tokenId"].(string)}

	// wrong password
	env = c.do(http.MethodPost, "/tokens", nil, map[string]string{"email": "a@b.com", "password": "nope"})
	assert.Equal(t, 412, env.StatusCode)
	assert.Contains(t, env.Message, "email or password is wrong")

	// menu and cart
	env = c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Burger", "price": 5.00})
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)

	env = c.do(http.MethodPost, "/shoppingCarts", auth, nil)
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)

	env = c.do(http.MethodPost, "/shoppingCarts?item=Burger&qtty=3", auth, nil)
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)
	cart := decode[models.ShoppingCart](t, env)
	assert.Equal(t, 15.0, cart.Total)

	env = c.do(http.MethodDelete, "/shoppingCarts?id=a@b.com", auth, map[string]any{"items": []string{"Burger"}})
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)
	cart = decode[models.ShoppingCart](t, env)
	assert.Zero(t, cart.Total)
	assert.Empty(t, cart.Items)

	// order, then a second one
	env = c.do(http.MethodPost, "/shoppingCarts?item=Burger&qtty=2", auth, nil)
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)

	env = c.do(http.MethodPost, "/purchaseOrders?email=a@b.com", auth, nil)
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)
	order := decode[models.PurchaseOrder](t, env)
	assert.Equal(t, 10.0, order.Total)
	assert.True(t, order.Authorization)

	env = c.do(http.MethodPost, "/purchaseOrders?email=a@b.com", auth, nil)
	assert.Equal(t, 451, env.StatusCode)

	env = c.do(http.MethodGet, "/purchaseOrders?email=a@b.com", auth, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, order.ID, decode[models.PurchaseOrder](t, env).ID)
}

func TestArchivePolicyAllowsRepeatOrders(t *testing.T) {
	c := setupApp(t, map[string]string{"ORDER_POLICY": "archive"})
	auth := c.signUp("a@b.com")

	c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Pizza", "price": 12.5})
	c.do(http.MethodPost, "/shoppingCarts", auth, nil)
	c.do(http.MethodPost, "/shoppingCarts?item=Pizza&qtty=1", auth, nil)

	for i := 0; i < 2; i++ {
		env := c.do(http.MethodPost, "/purchaseOrders?email=a@b.com", auth, nil)
		assert.Equal(t, http.StatusCreated, env.StatusCode, env.Message)
	}
}

func TestRouting(t *testing.T) {
	c := setupApp(t, nil)

	env := c.do(http.MethodPatch, "/users", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, env.StatusCode)
	assert.Equal(t, "Method not allowed", env.Message)

	env = c.do(http.MethodPut, "/purchaseOrders", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, env.StatusCode)

	env = c.do(http.MethodGet, "/pizzas", nil, nil)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Equal(t, "Invalid Path", env.Message)
}

func TestMalformedBody(t *testing.T) {
	c := setupApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.app.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 412, resp.StatusCode)
}

func TestUsersEndpoints(t *testing.T) {
	c := setupApp(t, nil)
	auth := c.signUp("a@b.com")
	c.signUp("c@d.com")

	env := c.do(http.MethodGet, "/users?email=a@b.com", map[string]string{"token": auth["token"]}, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "A", decode[models.User](t, env).Name)

	env = c.do(http.MethodGet, "/users?all", auth, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, env), 2)

	env = c.do(http.MethodPut, "/users?email=a@b.com", auth, map[string]string{"email": "z@b.com"})
	assert.Equal(t, 405, env.StatusCode)

	env = c.do(http.MethodPut, "/users?email=a@b.com", auth, map[string]string{"name": "A"})
	assert.Equal(t, 404, env.StatusCode)

	env = c.do(http.MethodPut, "/users?email=a@b.com", auth, map[string]string{"name": "B"})
	assert.Equal(t, http.StatusCreated, env.StatusCode)

	env = c.do(http.MethodDelete, "/users?email=a@b.com", auth, nil)
	assert.Equal(t, http.StatusOK, env.StatusCode)

	env = c.do(http.MethodGet, "/users?email=a@b.com", auth, nil)
	assert.Equal(t, 404, env.StatusCode)
}

func TestTokensEndpoints(t *testing.T) {
	c := setupApp(t, nil)
	auth := c.signUp("a@b.com")
	id := auth["token"]

	env := c.do(http.MethodGet, "/tokens?id="+id, nil, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	view := decode[models.TokenView](t, env)
	assert.Equal(t, "a@b.com", view.Email)
	assert.NotEmpty(t, view.ExpiresAt)

	env = c.do(http.MethodGet, "/tokens?all", nil, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.NotContains(t, string(env.Data), id)

	env = c.do(http.MethodPut, "/tokens?id="+id, nil, nil)
	require.Equal(t, http.StatusCreated, env.StatusCode)
	assert.Greater(t, decode[models.TokenView](t, env).Expires, view.Expires)

	env = c.do(http.MethodPut, "/tokens?id=short", nil, nil)
	assert.Equal(t, 403, env.StatusCode)

	env = c.do(http.MethodDelete, "/tokens?id="+id, nil, nil)
	assert.Equal(t, http.StatusOK, env.StatusCode)

	env = c.do(http.MethodGet, "/users?email=a@b.com", auth, nil)
	assert.Equal(t, 404, env.StatusCode)
}

func TestMenusEndpoints(t *testing.T) {
	c := setupApp(t, nil)
	auth := c.signUp("a@b.com")

	env := c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Burger", "price": 0})
	assert.Equal(t, 412, env.StatusCode)

	c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Burger", "price": 5})
	env = c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Burger", "price": 6})
	assert.Equal(t, 451, env.StatusCode)

	env = c.do(http.MethodPut, "/menus?name=Burger", auth, map[string]any{"price": 6})
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)

	env = c.do(http.MethodGet, "/menus?all", nil, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, []models.MenuEntry{{Name: "Burger", Price: 6}}, decode[[]models.MenuEntry](t, env))

	env = c.do(http.MethodDelete, "/menus?name=Burger", nil, nil)
	assert.Equal(t, 412, env.StatusCode, "credentials are required")

	env = c.do(http.MethodDelete, "/menus?name=Burger", auth, nil)
	assert.Equal(t, http.StatusOK, env.StatusCode)

	env = c.do(http.MethodGet, "/menus?name=Burger", nil, nil)
	assert.Equal(t, 404, env.StatusCode)
}

func TestShoppingCartsEndpoints(t *testing.T) {
	c := setupApp(t, nil)
	auth := c.signUp("a@b.com")
	c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Burger", "price": 5})
	c.do(http.MethodPost, "/menus", nil, map[string]any{"name": "Soda", "price": 2})
	c.do(http.MethodPost, "/shoppingCarts", auth, nil)
	c.do(http.MethodPost, "/shoppingCarts?item=Burger&qtty=1", auth, nil)
	c.do(http.MethodPost, "/shoppingCarts?item=Soda&qtty=1", auth, nil)

	env := c.do(http.MethodPost, "/shoppingCarts?item=Burger&qtty=1", auth, nil)
	assert.Equal(t, 451, env.StatusCode)

	env = c.do(http.MethodPost, "/shoppingCarts?item=Burger&qtty=abc", auth, nil)
	assert.Equal(t, 412, env.StatusCode)

	env = c.do(http.MethodPut, "/shoppingCarts?id=a@b.com", auth, map[string]any{
		"items": []map[string]any{{"name": "Burger", "qtty": 3}, {"name": "Fries", "qtty": 1}},
	})
	require.Equal(t, http.StatusCreated, env.StatusCode, env.Message)
	assert.Equal(t, 17.0, decode[models.ShoppingCart](t, env).Total)

	env = c.do(http.MethodDelete, "/shoppingCarts?id=a@b.com", auth, map[string]any{"items": []string{"Fries"}})
	assert.Equal(t, 406, env.StatusCode)

	env = c.do(http.MethodGet, "/shoppingCarts", auth, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Len(t, decode[models.ShoppingCart](t, env).Items, 2)

	env = c.do(http.MethodGet, "/shoppingCarts?all", auth, nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, []string{"a@b.com"}, decode[[]string](t, env))

	env = c.do(http.MethodDelete, "/shoppingCarts?id=a@b.com", auth, nil)
	assert.Equal(t, http.StatusOK, env.StatusCode)

	env = c.do(http.MethodGet, "/shoppingCarts?email=a@b.com", auth, nil)
	assert.Equal(t, 404, env.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	c := setupApp(t, nil)
	c.do(http.MethodGet, "/pizzas", nil, nil)

	resp, err := c.app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "pizza_http_requests_total")
	assert.Contains(t, buf.String(), "pizza_store_operations_total")
}
