// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog implements the client for the upstream media metadata catalog.

It speaks the TMDB v3 wire format: movie and series lookups by numeric ID,
localized via a language query parameter, with poster paths resolved against
a configurable image CDN base.

# Architecture

  - Client: Thin HTTP client with per-request context deadlines.
  - Cache: Successful lookups are cached in Redis under a TTL; failures are
    never cached, so a flaky upstream cannot poison the cache.
  - Errors: Upstream 404s map to apperr.NotFound, anything else to
    apperr.Unavailable, keeping transport detail out of the domain.
*/
package catalog

import "fmt"

// # Wire Entities

// Movie is the subset of the upstream movie payload the notification
// pipeline needs.
type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

// TVShow is the subset of the upstream series payload the notification
// pipeline needs.
type TVShow struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	FirstAirDate string `json:"first_air_date"`
}

// ReleaseYear extracts the four-digit year from the release date, or ""
// when the upstream omits it.
func (movie *Movie) ReleaseYear() string {
	if len(movie.ReleaseDate) < 4 {
		return ""
	}
	return movie.ReleaseDate[:4]
}

// FirstAirYear extracts the four-digit year from the first air date, or ""
// when the upstream omits it.
func (show *TVShow) FirstAirYear() string {
	if len(show.FirstAirDate) < 4 {
		return ""
	}
	return show.FirstAirDate[:4]
}

// DisplayTitle renders "Title (Year)" the way notification subjects expect.
func (movie *Movie) DisplayTitle() string {
	if year := movie.ReleaseYear(); year != "" {
		return fmt.Sprintf("%s (%s)", movie.Title, year)
	}
	return movie.Title
}

// DisplayTitle renders "Name (Year)" the way notification subjects expect.
func (show *TVShow) DisplayTitle() string {
	if year := show.FirstAirYear(); year != "" {
		return fmt.Sprintf("%s (%s)", show.Name, year)
	}
	return show.Name
}
