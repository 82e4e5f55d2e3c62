// Package sqlite keeps the status tables in a local SQLite file, for
// development against a backend that writes to the same database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/store"
)

//go:embed schema.sql
var schema string

// Store implements store.StatusStore on SQLite.
type Store struct {
	db *sql.DB
}

var _ store.StatusStore = (*Store)(nil)

// Open creates the database file if needed and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) FindVideo(ctx context.Context, videoID string) (*model.Video, error) {
	query, args, err := sq.
		Select("id", "video_id", "video_url", "created_at").
		From("videos").
		Where(sq.Eq{"video_id": videoID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		v         model.Video
		videoURL  sql.NullString
		createdAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&v.ID, &v.VideoID, &videoURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("video not found")
	}
	if err != nil {
		return nil, model.Transient("status store unavailable", err)
	}
	if videoURL.Valid {
		v.VideoURL = &videoURL.String
	}
	v.CreatedAt = store.ParseTime(createdAt)
	return &v, nil
}

func (s *Store) ListStatus(ctx context.Context, videoUUID string) ([]model.StatusEntry, error) {
	query, args, err := sq.
		Select("id", "video_uuid", "step", "build_status", "created_at").
		From("status").
		Where(sq.Eq{"video_uuid": videoUUID}).
		OrderBy("step ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.Transient("status store unavailable", err)
	}
	defer rows.Close()

	var entries []model.StatusEntry
	for rows.Next() {
		var (
			id          int64
			e           model.StatusEntry
			step        sql.NullInt64
			buildStatus sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&id, &e.VideoUUID, &step, &buildStatus, &createdAt); err != nil {
			return nil, model.Transient("failed to read status rows", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		if step.Valid {
			n := int(step.Int64)
			e.Step = &n
		}
		e.BuildStatus = buildStatus.String
		e.CreatedAt = store.ParseTime(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Transient("failed to read status rows", err)
	}
	return entries, nil
}

// CreateVideo inserts a videos row for videoID and returns its row id.
func (s *Store) CreateVideo(ctx context.Context, videoID, prompt string) (string, error) {
	id := uuid.NewString()
	_, err := sq.Insert("videos").
		Columns("id", "video_id", "prompt", "created_at").
		Values(id, videoID, prompt, now()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to insert video: %w", err)
	}
	return id, nil
}

// SetVideoURL attaches the finished artifact to videoID.
func (s *Store) SetVideoURL(ctx context.Context, videoID, videoURL string) error {
	_, err := sq.Update("videos").
		Set("video_url", videoURL).
		Where(sq.Eq{"video_id": videoID}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	return nil
}

// AppendStatus adds one progress row. A nil step is stored as NULL.
func (s *Store) AppendStatus(ctx context.Context, videoUUID string, step *int, message string) error {
	_, err := sq.Insert("status").
		Columns("video_uuid", "step", "build_status", "created_at").
		Values(videoUUID, step, message, now()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert status: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
