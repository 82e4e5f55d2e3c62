package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lzhlsy00/video-gen/internal/auth"
)

// AuthHandler handles ForwardAuth verification for the API gateway
type AuthHandler struct {
	resolver *auth.Resolver
}

func NewAuthHandler(resolver *auth.Resolver) *AuthHandler {
	return &AuthHandler{resolver: resolver}
}

// Verify handles GET /auth/verify, called by Traefik ForwardAuth.
// Returns 200 with X-User-* headers on success, 401 on failure.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	id := h.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if id.IsAnonymous() {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set("X-User-Id", id.UserID)
	c.Set("X-User-Email", id.Email)
	c.Set("X-User-Name", id.DisplayName())
	return c.SendStatus(fiber.StatusOK)
}
