package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
	"github.com/lzhlsy00/video-gen/pkg/response"
)

type UploadHandler struct {
	service *service.UploadService
}

func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Upload handles POST /api/upload
// @Summary      Upload reference material
// @Description  Forward files to the generation backend (PDF, Word, images, text; max 50MB each)
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        files formData file true "Files to upload"
// @Success      200 {object} object "Backend upload body, unchanged"
// @Header       200 {string} X-Archived-Files "Archived copy URLs, comma separated"
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Router       /api/upload [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.ValidationError(c, "No files provided", nil)
	}

	headers := form.File["files"]
	files := make([]service.UploadSource, 0, len(headers))
	for _, fh := range headers {
		files = append(files, service.UploadSource{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Open:        opener(fh),
		})
	}

	result, err := h.service.Upload(c.UserContext(), files, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return response.FromError(c, err)
	}
	if len(result.Archived) > 0 {
		urls := make([]string, 0, len(result.Archived))
		for _, a := range result.Archived {
			urls = append(urls, a.FileURL)
		}
		c.Set(model.HeaderArchivedFiles, strings.Join(urls, ","))
	}
	return response.OK(c, result.Body)
}

func opener(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}
