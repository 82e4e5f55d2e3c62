// Package postgres reads the status tables over a direct pgx connection.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/store"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements store.StatusStore on a pgx pool.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ store.StatusStore = (*Store)(nil)

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, timeout time.Duration) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required for the postgres store")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, timeout: timeout}, nil
}

func videoQuery(videoID string) (string, []interface{}, error) {
	return psql.
		Select("id::text", "video_id", "video_url", "created_at").
		From("videos").
		Where(sq.Eq{"video_id": videoID}).
		Limit(1).
		ToSql()
}

func statusQuery(videoUUID string) (string, []interface{}, error) {
	return psql.
		Select("id::text", "video_uuid::text", "step", "build_status", "created_at").
		From("status").
		Where(sq.Eq{"video_uuid": videoUUID}).
		OrderBy("step ASC NULLS FIRST", "created_at ASC").
		ToSql()
}

func (s *Store) FindVideo(ctx context.Context, videoID string) (*model.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := videoQuery(videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		v         model.Video
		createdAt *time.Time
	)
	err = s.pool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.VideoID, &v.VideoURL, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NotFound("video not found")
	}
	if err != nil {
		return nil, model.Transient("status store unavailable", err)
	}
	if createdAt != nil {
		v.CreatedAt = *createdAt
	}
	return &v, nil
}

func (s *Store) ListStatus(ctx context.Context, videoUUID string) ([]model.StatusEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := statusQuery(videoUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.Transient("status store unavailable", err)
	}
	defer rows.Close()

	var entries []model.StatusEntry
	for rows.Next() {
		var (
			e           model.StatusEntry
			buildStatus *string
			createdAt   *time.Time
		)
		if err := rows.Scan(&e.ID, &e.VideoUUID, &e.Step, &buildStatus, &createdAt); err != nil {
			return nil, model.Transient("failed to read status rows", err)
		}
		if buildStatus != nil {
			e.BuildStatus = *buildStatus
		}
		if createdAt != nil {
			e.CreatedAt = *createdAt
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Transient("failed to read status rows", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
