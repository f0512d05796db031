// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package issues implements the media issue tracker at the heart of Cinara.

Members report playback problems (broken video, missing audio, bad subtitles)
against catalog titles. Operators resolve or reopen reports, and everyone
involved converses on a per-issue comment thread. Lifecycle events feed the
notification engine.

# Architecture

  - Entities: Issue, Comment, and the IssueType/IssueStatus enums.
  - Repository: Postgres-backed storage with transactional issue creation.
  - Service: Permission-guarded orchestration that fires lifecycle events.

# Lifecycle

An issue is born OPEN together with its first comment, which carries the
reporter's description. Status then toggles between OPEN and RESOLVED; each
transition records who made it. Only genuine transitions are observable as
events: setting an issue to the status it already has is a no-op.
*/
package issues

import (
	"context"
	"time"
)

// # Enumerations

// IssueType categorizes what is wrong with the media.
type IssueType string

const (
	TypeVideo    IssueType = "video"
	TypeAudio    IssueType = "audio"
	TypeSubtitle IssueType = "subtitles"
	TypeOther    IssueType = "other"
)

// IsValid reports whether the issue type is a known category.
func (issueType IssueType) IsValid() bool {
	switch issueType {
	case TypeVideo, TypeAudio, TypeSubtitle, TypeOther:
		return true
	}
	return false
}

// Label returns the human-readable category name used in notifications.
func (issueType IssueType) Label() string {
	switch issueType {
	case TypeVideo:
		return "Video"
	case TypeAudio:
		return "Audio"
	case TypeSubtitle:
		return "Subtitle"
	}
	return ""
}

// IssueStatus is the two-state lifecycle of an issue.
type IssueStatus string

const (
	StatusOpen     IssueStatus = "open"
	StatusResolved IssueStatus = "resolved"
)

// IsValid reports whether the status is a known lifecycle state.
func (status IssueStatus) IsValid() bool {
	switch status {
	case StatusOpen, StatusResolved:
		return true
	}
	return false
}

// # Domain Entities

// Issue is one reported problem against a media title.
type Issue struct {
	ID             int64       `json:"id"`
	IssueType      IssueType   `json:"issue_type"`
	Status         IssueStatus `json:"status"`
	MediaID        int64       `json:"media_id"`
	ProblemSeason  int         `json:"problem_season"`
	ProblemEpisode int         `json:"problem_episode"`
	CreatedByID    int64       `json:"created_by_id"`
	ModifiedByID   *int64      `json:"modified_by_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// Comments is populated on single-issue reads, ordered by ID ascending,
	// so the first element is always the reporter's original description.
	Comments []*Comment `json:"comments,omitempty"`
}

// FirstComment returns the comment with the lowest ID, which is the
// reporter's original description, or nil when no comments are loaded.
func (issue *Issue) FirstComment() *Comment {
	var first *Comment
	for _, comment := range issue.Comments {
		if first == nil || comment.ID < first.ID {
			first = comment
		}
	}
	return first
}

// Comment is one message on an issue's conversation thread.
type Comment struct {
	ID             int64     `json:"id"`
	IssueID        int64     `json:"issue_id"`
	UserID         int64     `json:"user_id"`
	Message        string    `json:"message"`
	AttachmentPath string    `json:"attachment_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// # Filters

// Filter narrows issue listings.
type Filter struct {
	// Status filters by lifecycle state when non-empty.
	Status IssueStatus

	// CreatedByID restricts results to one reporter when non-zero. The
	// service sets this for members who may only see their own reports.
	CreatedByID int64

	// MediaID restricts results to one title when non-zero.
	MediaID int64
}

// # Repository Contracts

// IssueRepository defines the persistence contract for issues.
type IssueRepository interface {
	/*
		CreateWithComment persists a new issue and its first comment in one
		transaction. Both IDs are written back onto the entities.

		Parameters:
		  - context: context.Context
		  - issue: *Issue
		  - comment: *Comment (The reporter's description)

		Returns:
		  - error: Storage failures
	*/
	CreateWithComment(context context.Context, issue *Issue, comment *Comment) error

	/*
		FindByID retrieves an issue with its full comment thread.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Issue: Hydrated entity with Comments populated
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*Issue, error)

	/*
		List returns a filtered page of issues, newest first, without
		comment threads.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Issue: Page of issues
		  - int: Total count matching the filter
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Issue, int, error)

	/*
		UpdateStatus transitions an issue's lifecycle state and records the
		modifying user.

		Parameters:
		  - context: context.Context
		  - issueID: int64
		  - status: IssueStatus
		  - modifiedByID: int64

		Returns:
		  - error: Execution failures
	*/
	UpdateStatus(context context.Context, issueID int64, status IssueStatus, modifiedByID int64) error

	/*
		Delete permanently removes an issue and its comment thread.

		Parameters:
		  - context: context.Context
		  - issueID: int64

		Returns:
		  - error: Execution failures
	*/
	Delete(context context.Context, issueID int64) error
}

// CommentRepository defines the persistence contract for issue comments.
type CommentRepository interface {
	/*
		Create appends a comment to an issue's thread. The ID is written back.

		Parameters:
		  - context: context.Context
		  - comment: *Comment

		Returns:
		  - error: Storage failures
	*/
	Create(context context.Context, comment *Comment) error

	/*
		FindByID retrieves a single comment.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Comment: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*Comment, error)

	/*
		FirstForIssue returns the lowest-ID comment of an issue, which is
		the reporter's original description.

		Parameters:
		  - context: context.Context
		  - issueID: int64

		Returns:
		  - *Comment: The first comment
		  - error: apperr.NotFound or storage failures
	*/
	FirstForIssue(context context.Context, issueID int64) (*Comment, error)

	/*
		Delete removes a single comment.

		Parameters:
		  - context: context.Context
		  - commentID: int64

		Returns:
		  - error: Execution failures
	*/
	Delete(context context.Context, commentID int64) error
}
