package model

import (
	"encoding/json"
	"time"
)

// MaxUploadSize caps every individual uploaded file.
const MaxUploadSize = 50 * 1024 * 1024

// multipartOverhead covers boundaries and part headers around the file bytes.
const multipartOverhead = 1024 * 1024

// UploadBodyLimit is the request body size that lets maxFiles files of up to
// MaxUploadSize each through to per-file validation.
func UploadBodyLimit(maxFiles int) int {
	if maxFiles < 1 {
		maxFiles = 1
	}
	return maxFiles*MaxUploadSize + multipartOverhead
}

// AllowedUploadTypes lists the accepted reference-material MIME types.
var AllowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/bmp":          true,
	"image/tiff":         true,
	"text/plain":         true,
}

// ArchivedFile is a copy of an uploaded file kept in object storage
type ArchivedFile struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	FileURL     string    `json:"file_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadResult is the backend's upload body plus any archived copies. Only
// Body is returned to the caller as JSON; archive URLs travel in a header.
type UploadResult struct {
	Body     json.RawMessage
	Archived []ArchivedFile
}

// HeaderArchivedFiles lists archived copy URLs, comma separated.
const HeaderArchivedFiles = "X-Archived-Files"
