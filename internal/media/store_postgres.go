// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/platform/database/schema"
	"github.com/taibuivan/cinara/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation of the media Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
FindByID retrieves a media row by its local primary key.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Media: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*Media, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.CoreMedia.ID, schema.CoreMedia.MediaType, schema.CoreMedia.TmdbID,
		schema.CoreMedia.Title, schema.CoreMedia.Slug,
		schema.CoreMedia.CreatedAt, schema.CoreMedia.UpdatedAt,
		schema.CoreMedia.Table, schema.CoreMedia.ID,
	)

	item := &Media{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&item.ID,
		&item.MediaType,
		&item.TmdbID,
		&item.Title,
		&item.Slug,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Media not found")
		}
		return nil, fmt.Errorf("postgres_media_repo_find_by_id_failed: %w", err)
	}

	return item, nil
}

/*
FindByTmdbID retrieves a media row by its catalog coordinates.

Parameters:
  - context: context.Context
  - mediaType: MediaType
  - tmdbID: int64

Returns:
  - *Media: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByTmdbID(context context.Context, mediaType MediaType, tmdbID int64) (*Media, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2`,
		schema.CoreMedia.ID, schema.CoreMedia.MediaType, schema.CoreMedia.TmdbID,
		schema.CoreMedia.Title, schema.CoreMedia.Slug,
		schema.CoreMedia.CreatedAt, schema.CoreMedia.UpdatedAt,
		schema.CoreMedia.Table, schema.CoreMedia.MediaType, schema.CoreMedia.TmdbID,
	)

	item := &Media{}
	err := repository.pool.QueryRow(context, query, mediaType, tmdbID).Scan(
		&item.ID,
		&item.MediaType,
		&item.TmdbID,
		&item.Title,
		&item.Slug,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Media not found")
		}
		return nil, fmt.Errorf("postgres_media_repo_find_by_tmdb_id_failed: %w", err)
	}

	return item, nil
}

/*
Upsert inserts a media row or refreshes the title of an existing one.

Description: Keyed on the (mediatype, tmdbid) unique constraint so repeated
issue reports against the same title converge on one local row.

Parameters:
  - context: context.Context
  - media: *Media

Returns:
  - error: Storage failures
*/
func (repository *PostgresRepository) Upsert(context context.Context, media *Media) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (%s, %s) DO UPDATE SET
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = NOW()
		RETURNING %s, %s, %s`,
		schema.CoreMedia.Table,
		schema.CoreMedia.MediaType, schema.CoreMedia.TmdbID, schema.CoreMedia.Title, schema.CoreMedia.Slug,
		schema.CoreMedia.CreatedAt, schema.CoreMedia.UpdatedAt,
		schema.CoreMedia.MediaType, schema.CoreMedia.TmdbID,
		schema.CoreMedia.Title, schema.CoreMedia.Title,
		schema.CoreMedia.Slug, schema.CoreMedia.Slug,
		schema.CoreMedia.UpdatedAt,
		schema.CoreMedia.ID, schema.CoreMedia.CreatedAt, schema.CoreMedia.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		media.MediaType,
		media.TmdbID,
		media.Title,
		media.Slug,
	).Scan(&media.ID, &media.CreatedAt, &media.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "upsert_media")
	}

	return nil
}
