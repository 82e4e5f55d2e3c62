package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lzhlsy00/video-gen/internal/service"
)

type HealthHandler struct {
	service *service.HealthService
}

func NewHealthHandler(svc *service.HealthService) *HealthHandler {
	return &HealthHandler{service: svc}
}

// Health handles GET /api/health
// @Summary      Backend health
// @Description  Probe the generation backend and report response time and video count
// @Tags         Health
// @Produce      json
// @Success      200 {object} model.HealthResponse
// @Failure      500 {object} model.HealthResponse
// @Router       /api/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result, err := h.service.Check(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return c.JSON(result)
}
