// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issues

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/cinara/internal/catalog"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Collaborator Contracts

// UserDirectory resolves user IDs into full accounts. The auth package's
// UserRepository satisfies it.
type UserDirectory interface {
	FindByID(context context.Context, id int64) (*auth.User, error)
}

// Catalog is the subset of the metadata client the issue tracker needs to
// resolve titles at report time.
type Catalog interface {
	GetMovie(context context.Context, id int64) (*catalog.Movie, error)
	GetTVShow(context context.Context, id int64) (*catalog.TVShow, error)
}

// MediaResolver turns catalog coordinates into persistent local media rows.
// The media package's Service satisfies it.
type MediaResolver interface {
	Get(context context.Context, id int64) (*media.Media, error)
	Resolve(context context.Context, mediaType media.MediaType, tmdbID int64, title string) (*media.Media, error)
}

// Notifier observes issue lifecycle events. Implementations must never block
// the caller and must never surface delivery failures back into the tracker.
type Notifier interface {
	// IssueCreated fires after a new issue and its first comment commit.
	IssueCreated(context context.Context, issue *Issue, reporter *auth.User)

	// IssueStatusChanged fires after a genuine OPEN/RESOLVED transition.
	// The issue carries its new status and hydrated comment thread.
	IssueStatusChanged(context context.Context, issue *Issue, modifier, reporter *auth.User)

	// CommentCreated fires after a comment is appended to an existing thread.
	CommentCreated(context context.Context, issue *Issue, comment *Comment, commenter, reporter *auth.User)
}

// # Service Layer

// Service orchestrates issue reporting, triage, and conversation, enforcing
// the capability model on every operation.
type Service struct {
	issueRepository   IssueRepository
	commentRepository CommentRepository
	users             UserDirectory
	catalog           Catalog
	mediaResolver     MediaResolver
	notifier          Notifier
	logger            *slog.Logger
}

// NewService constructs a new issue [Service] with its collaborators.
func NewService(
	issueRepo IssueRepository,
	commentRepo CommentRepository,
	users UserDirectory,
	catalogClient Catalog,
	mediaResolver MediaResolver,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		issueRepository:   issueRepo,
		commentRepository: commentRepo,
		users:             users,
		catalog:           catalogClient,
		mediaResolver:     mediaResolver,
		notifier:          notifier,
		logger:            logger,
	}
}

// # Issue Reporting

// CreateInput holds everything needed to report a new issue.
type CreateInput struct {
	MediaType      media.MediaType
	TmdbID         int64
	IssueType      IssueType
	Message        string
	ProblemSeason  int
	ProblemEpisode int
}

/*
Create reports a new issue against a catalog title.

Description: Resolves the title into a local media row, persists the issue
together with its first comment atomically, and announces the event. The
reporter needs the CreateIssues capability.

Parameters:
  - context: context.Context
  - actorID: int64 (The reporting user)
  - input: CreateInput

Returns:
  - *Issue: The persisted issue with its first comment attached
  - error: apperr.Forbidden, validation, or storage failures
*/
func (service *Service) Create(context context.Context, actorID int64, input CreateInput) (*Issue, error) {
	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return nil, err
	}

	if !actor.HasPermission(permissions.PermissionCreateIssues) {
		return nil, apperr.Forbidden("You do not have permission to report issues")
	}

	if !input.IssueType.IsValid() {
		return nil, apperr.ValidationError("Unknown issue type")
	}
	if !input.MediaType.IsValid() {
		return nil, apperr.ValidationError("Unknown media type")
	}
	if input.Message == "" {
		return nil, apperr.ValidationError("An issue description is required")
	}

	// Resolve the catalog title; a catalog outage degrades to a placeholder
	// title rather than blocking the report.
	title := service.lookupTitle(context, input.MediaType, input.TmdbID)

	mediaRow, err := service.mediaResolver.Resolve(context, input.MediaType, input.TmdbID, title)
	if err != nil {
		return nil, fmt.Errorf("issue_service_resolve_media_failed: %w", err)
	}

	issue := &Issue{
		IssueType:      input.IssueType,
		Status:         StatusOpen,
		MediaID:        mediaRow.ID,
		ProblemSeason:  input.ProblemSeason,
		ProblemEpisode: input.ProblemEpisode,
		CreatedByID:    actor.ID,
	}
	comment := &Comment{
		UserID:  actor.ID,
		Message: input.Message,
	}

	if err := service.issueRepository.CreateWithComment(context, issue, comment); err != nil {
		return nil, fmt.Errorf("issue_service_create_failed: %w", err)
	}

	service.logger.Info("issue_created",
		slog.Int64("issue_id", issue.ID),
		slog.Int64("media_id", issue.MediaID),
		slog.String("issue_type", string(issue.IssueType)),
		slog.Int64("created_by", actor.ID),
	)

	service.notifier.IssueCreated(context, issue, actor)

	return issue, nil
}

// lookupTitle fetches the display title for a catalog item, returning ""
// when the catalog cannot serve it.
func (service *Service) lookupTitle(context context.Context, mediaType media.MediaType, tmdbID int64) string {
	switch mediaType {
	case media.TypeMovie:
		movie, err := service.catalog.GetMovie(context, tmdbID)
		if err == nil {
			return movie.Title
		}
	case media.TypeTV:
		show, err := service.catalog.GetTVShow(context, tmdbID)
		if err == nil {
			return show.Name
		}
	}
	return ""
}

// # Issue Reading

/*
Get retrieves an issue with its comment thread.

Description: Reporters always see their own issues; seeing anyone else's
requires the ViewIssues or ManageIssues capability.

Parameters:
  - context: context.Context
  - actorID: int64
  - issueID: int64

Returns:
  - *Issue: Hydrated entity
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Get(context context.Context, actorID, issueID int64) (*Issue, error) {
	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return nil, err
	}

	issue, err := service.issueRepository.FindByID(context, issueID)
	if err != nil {
		return nil, err
	}

	if issue.CreatedByID != actor.ID &&
		!permissions.AllowsAny(actor.Permissions, permissions.PermissionViewIssues, permissions.PermissionManageIssues) {
		return nil, apperr.Forbidden("You do not have permission to view this issue")
	}

	return issue, nil
}

/*
List returns a filtered page of issues.

Description: Members without the ViewIssues or ManageIssues capability are
silently restricted to their own reports.

Parameters:
  - context: context.Context
  - actorID: int64
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Issue: Page of issues
  - int: Total count matching the filter
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, actorID int64, filter Filter, limit, offset int) ([]*Issue, int, error) {
	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return nil, 0, err
	}

	if !permissions.AllowsAny(actor.Permissions, permissions.PermissionViewIssues, permissions.PermissionManageIssues) {
		filter.CreatedByID = actor.ID
	}

	return service.issueRepository.List(context, filter, limit, offset)
}

// # Issue Triage

/*
UpdateStatus transitions an issue between OPEN and RESOLVED.

Description: Requires the ManageIssues capability, or being the reporter.
Setting the status an issue already has is a no-op: nothing is persisted and
no event fires.

Parameters:
  - context: context.Context
  - actorID: int64
  - issueID: int64
  - status: IssueStatus

Returns:
  - *Issue: The issue carrying its (possibly unchanged) status
  - error: apperr.Forbidden, validation, or storage failures
*/
func (service *Service) UpdateStatus(context context.Context, actorID, issueID int64, status IssueStatus) (*Issue, error) {
	if !status.IsValid() {
		return nil, apperr.ValidationError("Unknown issue status")
	}

	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return nil, err
	}

	issue, err := service.issueRepository.FindByID(context, issueID)
	if err != nil {
		return nil, err
	}

	if issue.CreatedByID != actor.ID && !actor.HasPermission(permissions.PermissionManageIssues) {
		return nil, apperr.Forbidden("You do not have permission to manage this issue")
	}

	// Idempotent no-op: no write, no event
	if issue.Status == status {
		return issue, nil
	}

	if err := service.issueRepository.UpdateStatus(context, issueID, status, actor.ID); err != nil {
		return nil, fmt.Errorf("issue_service_update_status_failed: %w", err)
	}

	issue.Status = status
	issue.ModifiedByID = &actor.ID

	service.logger.Info("issue_status_changed",
		slog.Int64("issue_id", issue.ID),
		slog.String("status", string(status)),
		slog.Int64("modified_by", actor.ID),
	)

	reporter := service.reporterOf(context, issue, actor)
	service.notifier.IssueStatusChanged(context, issue, actor, reporter)

	return issue, nil
}

/*
Delete permanently removes an issue and its comment thread.

Description: Requires the ManageIssues capability, or being the reporter.

Parameters:
  - context: context.Context
  - actorID: int64
  - issueID: int64

Returns:
  - error: apperr.Forbidden or storage failures
*/
func (service *Service) Delete(context context.Context, actorID, issueID int64) error {
	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return err
	}

	issue, err := service.issueRepository.FindByID(context, issueID)
	if err != nil {
		return err
	}

	if issue.CreatedByID != actor.ID && !actor.HasPermission(permissions.PermissionManageIssues) {
		return apperr.Forbidden("You do not have permission to delete this issue")
	}

	if err := service.issueRepository.Delete(context, issueID); err != nil {
		return fmt.Errorf("issue_service_delete_failed: %w", err)
	}

	service.logger.Info("issue_deleted",
		slog.Int64("issue_id", issueID),
		slog.Int64("deleted_by", actor.ID),
	)

	return nil
}

// # Conversation

/*
AddComment appends a message to an issue's thread.

Description: The reporter and anyone holding ManageIssues may comment.
The event always fires; the notification engine itself suppresses the
thread's first comment, which is the issue description.

Parameters:
  - context: context.Context
  - actorID: int64
  - issueID: int64
  - message: string
  - attachmentPath: string (Optional relative path to an uploaded snapshot)

Returns:
  - *Comment: The persisted comment
  - error: apperr.Forbidden, validation, or storage failures
*/
func (service *Service) AddComment(context context.Context, actorID, issueID int64, message, attachmentPath string) (*Comment, error) {
	if message == "" {
		return nil, apperr.ValidationError("A comment message is required")
	}

	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return nil, err
	}

	issue, err := service.issueRepository.FindByID(context, issueID)
	if err != nil {
		return nil, err
	}

	if issue.CreatedByID != actor.ID && !actor.HasPermission(permissions.PermissionManageIssues) {
		return nil, apperr.Forbidden("You do not have permission to comment on this issue")
	}

	comment := &Comment{
		IssueID:        issue.ID,
		UserID:         actor.ID,
		Message:        message,
		AttachmentPath: attachmentPath,
	}

	if err := service.commentRepository.Create(context, comment); err != nil {
		return nil, fmt.Errorf("issue_service_add_comment_failed: %w", err)
	}

	issue.Comments = append(issue.Comments, comment)

	service.logger.Info("issue_comment_created",
		slog.Int64("issue_id", issue.ID),
		slog.Int64("comment_id", comment.ID),
		slog.Int64("user_id", actor.ID),
	)

	reporter := service.reporterOf(context, issue, actor)
	service.notifier.CommentCreated(context, issue, comment, actor, reporter)

	return comment, nil
}

/*
GetComment retrieves a single comment.

Description: Visibility follows the parent issue — the comment's author and
the issue's reporter always see it; anyone else needs the ViewIssues or
ManageIssues capability.

Parameters:
  - context: context.Context
  - actorID: int64
  - commentID: int64

Returns:
  - *Comment: Hydrated entity
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) GetComment(context context.Context, actorID, commentID int64) (*Comment, error) {
	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return nil, err
	}

	comment, err := service.commentRepository.FindByID(context, commentID)
	if err != nil {
		return nil, err
	}

	issue, err := service.issueRepository.FindByID(context, comment.IssueID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != actor.ID && issue.CreatedByID != actor.ID &&
		!permissions.AllowsAny(actor.Permissions, permissions.PermissionViewIssues, permissions.PermissionManageIssues) {
		return nil, apperr.Forbidden("You do not have permission to view this comment")
	}

	return comment, nil
}

/*
DeleteComment removes a follow-up comment from a thread.

Description: The comment's author and anyone holding ManageIssues may delete
it. The thread's first comment is the issue description itself and can only
go away with the whole issue.

Parameters:
  - context: context.Context
  - actorID: int64
  - commentID: int64

Returns:
  - error: apperr.Forbidden, apperr.Conflict, or storage failures
*/
func (service *Service) DeleteComment(context context.Context, actorID, commentID int64) error {
	actor, err := service.users.FindByID(context, actorID)
	if err != nil {
		return err
	}

	comment, err := service.commentRepository.FindByID(context, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != actor.ID && !actor.HasPermission(permissions.PermissionManageIssues) {
		return apperr.Forbidden("You do not have permission to delete this comment")
	}

	first, err := service.commentRepository.FirstForIssue(context, comment.IssueID)
	if err != nil {
		return err
	}
	if first.ID == comment.ID {
		return apperr.Conflict("The issue description cannot be deleted on its own")
	}

	if err := service.commentRepository.Delete(context, commentID); err != nil {
		return fmt.Errorf("issue_service_delete_comment_failed: %w", err)
	}

	service.logger.Info("issue_comment_deleted",
		slog.Int64("issue_id", comment.IssueID),
		slog.Int64("comment_id", commentID),
		slog.Int64("deleted_by", actor.ID),
	)

	return nil
}

// reporterOf resolves the issue's reporter, reusing the actor when they are
// one and the same. A missing reporter degrades to nil; the notification
// engine treats that as "no user recipient".
func (service *Service) reporterOf(context context.Context, issue *Issue, actor *auth.User) *auth.User {
	if issue.CreatedByID == actor.ID {
		return actor
	}
	reporter, err := service.users.FindByID(context, issue.CreatedByID)
	if err != nil {
		service.logger.Warn("issue_reporter_lookup_failed",
			slog.Int64("issue_id", issue.ID),
			slog.Int64("reporter_id", issue.CreatedByID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return reporter
}
