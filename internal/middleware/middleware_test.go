package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/auth"
	"github.com/lzhlsy00/video-gen/internal/logger"
)

const secret = "super-secret-jwt-token-with-at-least-32-characters"

func newIdentityApp(trustGateway bool) *fiber.App {
	resolver := auth.NewResolver(logger.Nop(), auth.NewHMACVerifier(secret))
	m := NewIdentityMiddleware(resolver, trustGateway)

	app := fiber.New()
	app.Use(m.Resolve())
	app.Get("/open", func(c *fiber.Ctx) error { return c.JSON(GetIdentity(c)) })
	app.Get("/closed", RequireIdentity("Please login"), func(c *fiber.Ctx) error { return c.JSON(GetIdentity(c)) })
	return app
}

func get(t *testing.T, app *fiber.App, path string, headers map[string]string) (int, auth.Identity) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	var id auth.Identity
	json.Unmarshal(body, &id)
	return resp.StatusCode, id
}

func TestIdentity_OptionalRouteAllowsAnonymous(t *testing.T) {
	app := newIdentityApp(false)

	status, id := get(t, app, "/open", nil)
	assert.Equal(t, 200, status)
	assert.True(t, id.IsAnonymous())

	status, id = get(t, app, "/open", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, 200, status)
	assert.True(t, id.IsAnonymous())
}

func TestIdentity_RequiredRoute(t *testing.T) {
	app := newIdentityApp(false)

	status, _ := get(t, app, "/closed", nil)
	assert.Equal(t, 401, status)

	token, err := auth.SignHMAC(secret, "user-1", "a@b.com", time.Hour)
	require.NoError(t, err)
	status, id := get(t, app, "/closed", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, 200, status)
	assert.Equal(t, "a@b.com", id.Email)
}

func TestIdentity_GatewayHeaders(t *testing.T) {
	headers := map[string]string{"X-User-Id": "gw-1", "X-User-Email": "gw@x.io"}

	_, id := get(t, newIdentityApp(true), "/open", headers)
	assert.Equal(t, "gw-1", id.UserID)

	_, id = get(t, newIdentityApp(false), "/open", headers)
	assert.True(t, id.IsAnonymous(), "headers must be ignored without a gateway")
}

func TestLocale(t *testing.T) {
	app := fiber.New()
	app.Use(Locale("en"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetLocale(c)) })

	cases := []struct {
		path, accept, want string
	}{
		{"/", "", "en"},
		{"/", "zh-CN,zh;q=0.9", "zh"},
		{"/", "fr-FR", "en"},
		{"/?lang=zh", "en-US", "zh"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.accept != "" {
			req.Header.Set("Accept-Language", tc.accept)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, tc.want, string(body), "%s %s", tc.path, tc.accept)
	}
}

func TestRateLimiter_FailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	app := fiber.New()
	app.Get("/", NewRateLimiter(rdb, logger.Nop()).GenerateLimit(1), func(c *fiber.Ctx) error { return c.SendStatus(204) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
	}
}
