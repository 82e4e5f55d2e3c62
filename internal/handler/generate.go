package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/middleware"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
	"github.com/lzhlsy00/video-gen/pkg/response"
)

type GenerateHandler struct {
	service *service.GenerationService
	watch   *service.WatchService
	log     zerolog.Logger
}

// NewGenerateHandler creates the submission handler. watch may be nil, in
// which case no server-side watch is scheduled.
func NewGenerateHandler(svc *service.GenerationService, watch *service.WatchService, log zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		service: svc,
		watch:   watch,
		log:     log,
	}
}

// Generate handles POST /api/generate
// @Summary      Submit a video generation job
// @Description  Validate the prompt, apply defaults and forward the request to the generation backend
// @Tags         Generate
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateRequest true "Generation request"
// @Success      200 {object} model.GenerateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /api/generate [post]
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	id := middleware.GetIdentity(c)
	result, err := h.service.Generate(c.UserContext(), &req, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return response.FromError(c, err)
	}

	h.log.Info().
		Str("video_id", result.VideoID).
		Str("owner", id.DisplayName()).
		Msg("video generation requested")

	if h.watch != nil && result.VideoID != "" {
		if err := h.watch.Watch(c.UserContext(), result.VideoID, middleware.GetLocale(c)); err != nil {
			h.log.Warn().Err(err).Str("video_id", result.VideoID).Msg("could not schedule watch")
		}
	}

	return response.OK(c, result)
}
