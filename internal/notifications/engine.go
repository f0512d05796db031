// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/cinara/internal/catalog"
	"github.com/taibuivan/cinara/internal/issues"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// enrichTimeout bounds the background enrichment of one event. The caller's
// request context is never used: the HTTP response must not wait for
// notification delivery.
const enrichTimeout = 30 * time.Second

// # Collaborator Contracts

// CatalogClient is the subset of the metadata client the engine needs.
type CatalogClient interface {
	GetMovie(context context.Context, id int64) (*catalog.Movie, error)
	GetTVShow(context context.Context, id int64) (*catalog.TVShow, error)
	PosterURL(posterPath string) string
}

// MediaDirectory resolves local media IDs into rows.
type MediaDirectory interface {
	Get(context context.Context, id int64) (*media.Media, error)
}

// # Engine

// Engine observes issue lifecycle events and turns them into notifications.
//
// It implements the issue tracker's Notifier contract. Every hook returns
// immediately; classification, enrichment, and dispatch run on a background
// goroutine, and every failure along the way is logged and swallowed.
type Engine struct {
	manager        *Manager
	catalog        CatalogClient
	mediaDirectory MediaDirectory
	applicationURL string
	logger         *slog.Logger
}

// NewEngine constructs the notification [Engine].
func NewEngine(
	manager *Manager,
	catalogClient CatalogClient,
	mediaDirectory MediaDirectory,
	applicationURL string,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		manager:        manager,
		catalog:        catalogClient,
		mediaDirectory: mediaDirectory,
		applicationURL: applicationURL,
		logger:         logger,
	}
}

// # Lifecycle Hooks

// IssueCreated announces a freshly reported issue to the admin channels.
func (engine *Engine) IssueCreated(_ context.Context, issue *issues.Issue, reporter *auth.User) {
	go engine.process(KindIssueCreated, issue, issue.FirstComment(), reporter, reporter)
}

// IssueStatusChanged announces a genuine OPEN/RESOLVED transition.
func (engine *Engine) IssueStatusChanged(_ context.Context, issue *issues.Issue, modifier, reporter *auth.User) {
	go engine.process(StatusKind(issue.Status), issue, issue.FirstComment(), modifier, reporter)
}

// CommentCreated announces a new comment on an existing thread. The thread's
// first comment is the issue description and is suppressed here: it already
// travelled with the created event.
func (engine *Engine) CommentCreated(_ context.Context, issue *issues.Issue, comment *issues.Comment, commenter, reporter *auth.User) {
	first := issue.FirstComment()
	if first != nil && first.ID == comment.ID {
		return
	}
	go engine.process(KindIssueComment, issue, comment, commenter, reporter)
}

// # Pipeline

// process runs the classify/enrich/compose/dispatch pipeline for one event.
// It never propagates an error: a notification that cannot be built is
// logged and dropped.
func (engine *Engine) process(kind Kind, issue *issues.Issue, comment *issues.Comment, actor, reporter *auth.User) {
	processCtx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	payload, err := engine.BuildPayload(processCtx, kind, issue, comment, actor, reporter)
	if err != nil {
		var commentID int64
		if comment != nil {
			commentID = comment.ID
		}
		engine.logger.Error("notification_build_failed",
			slog.String("kind", string(kind)),
			slog.Int64("issue_id", issue.ID),
			slog.Int64("comment_id", commentID),
			slog.String("error", err.Error()),
		)
		return
	}

	engine.manager.Dispatch(processCtx, payload)
}

/*
BuildPayload classifies, enriches, and composes one issue event.

Description: Resolves the issue's media row, pulls title and poster from the
catalog, and assembles the transport-neutral payload with its recipients
decided. A catalog failure fails the whole build; the event's notification
is skipped, never half-composed.

Parameters:
  - context: context.Context
  - kind: Kind
  - issue: *issues.Issue (With its comment thread hydrated)
  - comment: *issues.Comment (The triggering comment, or the thread's first
    comment for issue events)
  - actor: *auth.User (Who caused the event)
  - reporter: *auth.User (Who filed the issue, may be nil)

Returns:
  - Payload: Fully composed notification
  - error: Media lookup, catalog, or invariant failures
*/
func (engine *Engine) BuildPayload(context context.Context, kind Kind, issue *issues.Issue, comment *issues.Comment, actor, reporter *auth.User) (Payload, error) {
	first := issue.FirstComment()
	if first == nil || comment == nil {
		return Payload{}, apperr.Invariant("Issue has no comments")
	}

	mediaRow, err := engine.mediaDirectory.Get(context, issue.MediaID)
	if err != nil {
		return Payload{}, fmt.Errorf("notification_engine_media_lookup_failed: %w", err)
	}

	subject, posterURL, err := engine.enrich(context, mediaRow)
	if err != nil {
		return Payload{}, fmt.Errorf("notification_engine_enrich_failed: %w", err)
	}

	// The body is always the original report text. The triggering comment
	// contributes only its attachment and its identity.
	payload := Payload{
		Kind:         kind,
		Event:        EventLabel(kind, issue.IssueType),
		Subject:      subject,
		Message:      first.Message,
		Image:        ResolveImage(engine.applicationURL, comment.AttachmentPath, posterURL),
		Extra:        SeasonEpisodeExtras(mediaRow.MediaType, issue.ProblemSeason, issue.ProblemEpisode),
		IssueID:      issue.ID,
		CommentID:    comment.ID,
		NotifyAdmin:  true,
		NotifySystem: true,
		NotifyUser:   DirectRecipient(kind, actor, reporter),
	}

	return payload, nil
}

// enrich resolves the display subject and poster URL for a media row. Any
// catalog failure fails the whole enrichment; the caller skips the
// notification rather than sending a half-composed one.
func (engine *Engine) enrich(context context.Context, mediaRow *media.Media) (subject, posterURL string, err error) {
	switch mediaRow.MediaType {
	case media.TypeMovie:
		movie, err := engine.catalog.GetMovie(context, mediaRow.TmdbID)
		if err != nil {
			return "", "", err
		}
		return movie.DisplayTitle(), engine.catalog.PosterURL(movie.PosterPath), nil
	case media.TypeTV:
		show, err := engine.catalog.GetTVShow(context, mediaRow.TmdbID)
		if err != nil {
			return "", "", err
		}
		return show.DisplayTitle(), engine.catalog.PosterURL(show.PosterPath), nil
	}
	return "", "", apperr.Invariant("Unknown media type")
}
