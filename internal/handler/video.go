package handler

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/middleware"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
	ws "github.com/lzhlsy00/video-gen/internal/websocket"
	"github.com/lzhlsy00/video-gen/pkg/response"
)

type VideoHandler struct {
	status *service.StatusService
	videos *service.VideoService
	watch  *service.WatchService
	hub    *ws.Hub
	log    zerolog.Logger
}

func NewVideoHandler(status *service.StatusService, videos *service.VideoService, watch *service.WatchService, hub *ws.Hub, log zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		status: status,
		videos: videos,
		watch:  watch,
		hub:    hub,
		log:    log,
	}
}

// Status handles GET /api/video/:id/status
// @Summary      Poll job progress
// @Description  Normalized snapshot of a job. Unknown jobs report as initializing.
// @Tags         Video
// @Produce      json
// @Param        id path string true "Video ID"
// @Success      200 {object} model.StatusSnapshot
// @Failure      400 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /api/video/{id}/status [get]
func (h *VideoHandler) Status(c *fiber.Ctx) error {
	snap, err := h.status.Poll(c.UserContext(), c.Params("id"), middleware.GetLocale(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, snap)
}

// Result handles GET /api/video/:id/result
// @Summary      Look up a finished job
// @Description  Direct lookup for the result view. Jobs without a result carry a redirect to their progress view.
// @Tags         Video
// @Produce      json
// @Param        id path string true "Video ID"
// @Success      200 {object} model.ResultView
// @Failure      404 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Router       /api/video/{id}/result [get]
func (h *VideoHandler) Result(c *fiber.Ctx) error {
	view, err := h.status.Lookup(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, view)
}

// Video handles GET /api/video/:id
// @Summary      Get one of my videos
// @Tags         Video
// @Produce      json
// @Param        id path string true "Video ID"
// @Success      200 {object} model.VideoDetailResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/video/{id} [get]
func (h *VideoHandler) Video(c *fiber.Ctx) error {
	detail, err := h.videos.Video(c.UserContext(), middleware.GetIdentity(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, detail)
}

// MyVideos handles GET /api/my-videos
// @Summary      List my videos
// @Tags         Video
// @Produce      json
// @Success      200 {object} model.VideoListResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/my-videos [get]
func (h *VideoHandler) MyVideos(c *fiber.Ctx) error {
	list, err := h.videos.MyVideos(c.UserContext(), middleware.GetIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, list)
}

// Explore handles GET /api/explore-videos
// @Summary      Random finished videos
// @Tags         Video
// @Produce      json
// @Success      200 {object} model.VideoListResponse
// @Router       /api/explore-videos [get]
func (h *VideoHandler) Explore(c *fiber.Ctx) error {
	list, err := h.videos.Explore(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, list)
}

// StreamConn is the part of a WebSocket connection the stream handler uses
type StreamConn interface {
	ws.Conn
	WriteJSON(v interface{}) error
}

// Stream handles GET /ws/videos/:id. A finished job gets its complete
// message at once; anything else is watched server-side and pushed.
func (h *VideoHandler) Stream(c *websocket.Conn) {
	locale, _ := c.Locals("locale").(string)
	h.ServeStream(c, c.Params("id"), locale)
}

// ServeStream runs one subscriber connection for videoID.
func (h *VideoHandler) ServeStream(c StreamConn, videoID, locale string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	view, err := h.status.Lookup(ctx, videoID)
	cancel()
	if err == nil && view.Ready {
		msg := model.WSCompleteMessage{
			Type:     model.WSMessageTypeComplete,
			VideoID:  videoID,
			VideoURL: view.VideoURL,
			Redirect: service.ResultPath(videoID),
		}
		if err := c.WriteJSON(msg); err != nil {
			h.log.Warn().Err(err).Str("video_id", videoID).Msg("failed to send complete message")
		}
		return
	}

	if h.watch != nil {
		if err := h.watch.Watch(context.Background(), videoID, locale); err != nil {
			h.log.Warn().Err(err).Str("video_id", videoID).Msg("could not schedule watch")
		}
	}
	h.hub.HandleConnection(c, videoID)
}
