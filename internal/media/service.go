// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"

	"github.com/taibuivan/cinara/pkg/slug"
)

// Service resolves catalog titles into persistent local media rows.
type Service struct {
	repository Repository
}

// NewService constructs a new media [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

/*
Get retrieves a media row by its local primary key.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Media: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, id int64) (*Media, error) {
	return service.repository.FindByID(context, id)
}

/*
Resolve returns the local media row for a catalog title, creating or
refreshing it on the way.

Description: Every issue report goes through this path, so the local mirror
always carries the catalog's latest title and a freshly derived slug.

Parameters:
  - context: context.Context
  - mediaType: MediaType
  - tmdbID: int64
  - title: string (Latest catalog title, may be empty on catalog outage)

Returns:
  - *Media: Persistent local row with its ID populated
  - error: Storage failures
*/
func (service *Service) Resolve(context context.Context, mediaType MediaType, tmdbID int64, title string) (*Media, error) {

	// Catalog outage: keep the existing row untouched if we have one
	if title == "" {
		existing, err := service.repository.FindByTmdbID(context, mediaType, tmdbID)
		if err == nil {
			return existing, nil
		}
		title = fmt.Sprintf("%s #%d", mediaType, tmdbID)
	}

	item := &Media{
		MediaType: mediaType,
		TmdbID:    tmdbID,
		Title:     title,
		Slug:      slug.From(title),
	}

	if err := service.repository.Upsert(context, item); err != nil {
		return nil, fmt.Errorf("media_service_resolve_failed: %w", err)
	}

	return item, nil
}
