package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lzhlsy00/video-gen/internal/auth"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/pkg/response"
)

const localIdentity = "identity"

// IdentityMiddleware resolves the caller once per request
type IdentityMiddleware struct {
	resolver     *auth.Resolver
	trustGateway bool
}

// NewIdentityMiddleware creates the middleware. With trustGateway set, X-User-*
// headers injected by the ForwardAuth gateway are accepted as-is.
func NewIdentityMiddleware(resolver *auth.Resolver, trustGateway bool) *IdentityMiddleware {
	return &IdentityMiddleware{resolver: resolver, trustGateway: trustGateway}
}

// Resolve stores the caller's Identity, Anonymous when none can be
// established. It never rejects a request.
func (m *IdentityMiddleware) Resolve() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.trustGateway {
			if userID := c.Get("X-User-Id"); userID != "" {
				c.Locals(localIdentity, auth.Identity{
					UserID: userID,
					Email:  c.Get("X-User-Email"),
					Source: "gateway",
				})
				return c.Next()
			}
		}

		c.Locals(localIdentity, m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)))
		return c.Next()
	}
}

// RequireIdentity rejects anonymous callers. It must run after Resolve.
func RequireIdentity(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetIdentity(c).IsAnonymous() {
			return response.FromError(c, model.Unauthorized(message))
		}
		return c.Next()
	}
}

// GetIdentity extracts the resolved identity from context
func GetIdentity(c *fiber.Ctx) auth.Identity {
	if id, ok := c.Locals(localIdentity).(auth.Identity); ok {
		return id
	}
	return auth.Anonymous
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	return GetIdentity(c).UserID
}
