// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media defines the catalog-backed media entities that issues are
reported against.

A Media row is a thin local mirror of a catalog title: its type (movie or
series), its upstream catalog ID, and a display title with a URL-safe slug.
Rows are created lazily the first time someone reports an issue against a
title, and kept stable so issue history survives catalog outages.

# Architecture

  - Entities: Media and the MediaType enum.
  - Repository: Postgres-backed upsert-by-catalog-ID storage.
  - Service: Resolution of catalog IDs into persistent local rows.
*/
package media

import (
	"context"
	"time"
)

// # Domain Entities

// MediaType discriminates between the two catalog title families.
type MediaType string

const (
	TypeMovie MediaType = "movie"
	TypeTV    MediaType = "tv"
)

// IsValid reports whether the media type is a known discriminator.
func (mediaType MediaType) IsValid() bool {
	switch mediaType {
	case TypeMovie, TypeTV:
		return true
	}
	return false
}

// Media represents a locally mirrored catalog title.
type Media struct {
	ID        int64     `json:"id"`
	MediaType MediaType `json:"media_type"`
	TmdbID    int64     `json:"tmdb_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Repository Contract

// Repository defines the persistence contract for media rows.
type Repository interface {
	/*
		FindByID retrieves a media row by its local primary key.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Media: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*Media, error)

	/*
		FindByTmdbID retrieves a media row by its catalog coordinates.

		Parameters:
		  - context: context.Context
		  - mediaType: MediaType
		  - tmdbID: int64

		Returns:
		  - *Media: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByTmdbID(context context.Context, mediaType MediaType, tmdbID int64) (*Media, error)

	/*
		Upsert inserts a media row or refreshes the title of an existing one,
		keyed on (mediatype, tmdbid). The local ID is written back.

		Parameters:
		  - context: context.Context
		  - media: *Media

		Returns:
		  - error: Storage failures
	*/
	Upsert(context context.Context, media *Media) error
}
