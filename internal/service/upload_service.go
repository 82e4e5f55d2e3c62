package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// UploadSource is one incoming file. Open may be called more than once.
type UploadSource struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadService validates reference material and forwards it to the backend
type UploadService struct {
	backend client.GenerationBackend
	archive client.ArchiveStore
	now     func() time.Time
	log     zerolog.Logger
}

// NewUploadService creates the upload service. archive may be nil, in which
// case files are only forwarded.
func NewUploadService(backend client.GenerationBackend, archive client.ArchiveStore, log zerolog.Logger) *UploadService {
	return &UploadService{
		backend: backend,
		archive: archive,
		now:     time.Now,
		log:     log.With().Str("component", "upload").Logger(),
	}
}

// Validate checks count, size and type of every file.
func (s *UploadService) Validate(files []UploadSource) error {
	if len(files) == 0 {
		return model.InvalidRequest("No files provided")
	}
	for _, f := range files {
		if f.Size > model.MaxUploadSize {
			e := model.InvalidRequest(fmt.Sprintf("File %s exceeds the 50MB limit", f.Name))
			e.Details = map[string]interface{}{
				"file":     f.Name,
				"maxSize":  model.MaxUploadSize,
				"fileSize": f.Size,
			}
			return e
		}
		if !model.AllowedUploadTypes[f.ContentType] {
			e := model.InvalidRequest(fmt.Sprintf("Unsupported file type: %s", f.ContentType))
			e.Details = map[string]interface{}{"file": f.Name, "contentType": f.ContentType}
			return e
		}
	}
	return nil
}

// Upload forwards files to the backend with the caller's credential and,
// when an archive is configured, keeps a copy of each. Archive failures are
// logged and skipped.
func (s *UploadService) Upload(ctx context.Context, files []UploadSource, credential string) (*model.UploadResult, error) {
	if err := s.Validate(files); err != nil {
		return nil, err
	}

	parts := make([]client.UploadFile, 0, len(files))
	for _, f := range files {
		r, err := f.Open()
		if err != nil {
			return nil, model.InvalidRequest(fmt.Sprintf("Could not read %s", f.Name))
		}
		defer r.Close()
		parts = append(parts, client.UploadFile{Name: f.Name, ContentType: f.ContentType, Size: f.Size, Body: r})
	}

	result, err := s.backend.Upload(ctx, parts, credential)
	if err != nil {
		s.log.Warn().Err(err).Int("files", len(files)).Msg("backend upload failed")
		return nil, err
	}

	return &model.UploadResult{Body: result, Archived: s.archiveAll(ctx, files)}, nil
}

func (s *UploadService) archiveAll(ctx context.Context, files []UploadSource) []model.ArchivedFile {
	if s.archive == nil {
		return nil
	}

	var archived []model.ArchivedFile
	for _, f := range files {
		a, err := s.archiveOne(ctx, f)
		if err != nil {
			s.log.Warn().Err(err).Str("file", f.Name).Msg("failed to archive upload")
			continue
		}
		archived = append(archived, *a)
	}
	return archived
}

func (s *UploadService) archiveOne(ctx context.Context, f UploadSource) (*model.ArchivedFile, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	now := s.now()
	fileURL, err := s.archive.Put(ctx, client.UploadKey(f.Name, now), r, f.ContentType)
	if err != nil {
		return nil, err
	}
	return &model.ArchivedFile{
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		FileURL:     fileURL,
		CreatedAt:   now,
	}, nil
}
