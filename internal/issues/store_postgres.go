// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issues

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

// # Issue Repository

// PostgresIssueRepository implements [IssueRepository] using pgx.
type PostgresIssueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository creates a new Postgres implementation of IssueRepository.
func NewIssueRepository(pool *pgxpool.Pool) *PostgresIssueRepository {
	return &PostgresIssueRepository{pool: pool}
}

/*
CreateWithComment persists a new issue and its first comment atomically.

Description: Both rows commit or neither does, so an issue can never exist
without its reporter's description. Assigned IDs are written back.

Parameters:
  - context: context.Context
  - issue: *Issue
  - comment: *Comment

Returns:
  - error: Storage failures
*/
func (repository *PostgresIssueRepository) CreateWithComment(context context.Context, issue *Issue, comment *Comment) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_issue_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	issueQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s, %s, %s`,
		schema.IssuesIssue.Table,
		schema.IssuesIssue.IssueType, schema.IssuesIssue.Status, schema.IssuesIssue.MediaID,
		schema.IssuesIssue.ProblemSeason, schema.IssuesIssue.ProblemEpisode, schema.IssuesIssue.CreatedByID,
		schema.IssuesIssue.CreatedAt, schema.IssuesIssue.UpdatedAt,
		schema.IssuesIssue.ID, schema.IssuesIssue.CreatedAt, schema.IssuesIssue.UpdatedAt,
	)

	err = transaction.QueryRow(context, issueQuery,
		issue.IssueType,
		issue.Status,
		issue.MediaID,
		issue.ProblemSeason,
		issue.ProblemEpisode,
		issue.CreatedByID,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "create_issue")
	}

	commentQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING %s, %s, %s`,
		schema.IssuesComment.Table,
		schema.IssuesComment.IssueID, schema.IssuesComment.UserID, schema.IssuesComment.Message,
		schema.IssuesComment.AttachmentPath,
		schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
		schema.IssuesComment.ID, schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
	)

	comment.IssueID = issue.ID
	err = transaction.QueryRow(context, commentQuery,
		comment.IssueID,
		comment.UserID,
		comment.Message,
		comment.AttachmentPath,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "create_issue_report")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_issue_repo_commit_failed: %w", err)
	}

	issue.Comments = []*Comment{comment}
	return nil
}

/*
FindByID retrieves an issue and hydrates its full comment thread.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Issue: Hydrated entity, Comments ordered by ID ascending
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresIssueRepository) FindByID(context context.Context, id int64) (*Issue, error) {
	issueQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.IssuesIssue.ID, schema.IssuesIssue.IssueType, schema.IssuesIssue.Status,
		schema.IssuesIssue.MediaID, schema.IssuesIssue.ProblemSeason, schema.IssuesIssue.ProblemEpisode,
		schema.IssuesIssue.CreatedByID, schema.IssuesIssue.ModifiedByID,
		schema.IssuesIssue.CreatedAt, schema.IssuesIssue.UpdatedAt,
		schema.IssuesIssue.Table, schema.IssuesIssue.ID,
	)

	issue := &Issue{}
	err := repository.pool.QueryRow(context, issueQuery, id).Scan(
		&issue.ID,
		&issue.IssueType,
		&issue.Status,
		&issue.MediaID,
		&issue.ProblemSeason,
		&issue.ProblemEpisode,
		&issue.CreatedByID,
		&issue.ModifiedByID,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Issue not found")
		}
		return nil, fmt.Errorf("postgres_issue_repo_find_by_id_failed: %w", err)
	}

	commentQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC`,
		schema.IssuesComment.ID, schema.IssuesComment.IssueID, schema.IssuesComment.UserID,
		schema.IssuesComment.Message, schema.IssuesComment.AttachmentPath,
		schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
		schema.IssuesComment.Table, schema.IssuesComment.IssueID, schema.IssuesComment.ID,
	)

	rows, err := repository.pool.Query(context, commentQuery, id)
	if err != nil {
		return nil, fmt.Errorf("postgres_issue_repo_list_comments_failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		comment := &Comment{}
		if err := rows.Scan(
			&comment.ID,
			&comment.IssueID,
			&comment.UserID,
			&comment.Message,
			&comment.AttachmentPath,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_issue_repo_scan_comment_failed: %w", err)
		}
		issue.Comments = append(issue.Comments, comment)
	}

	return issue, nil
}

/*
List returns a filtered page of issues, newest first.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Issue: Page of issues without comment threads
  - int: Total count matching the filter
  - error: Retrieval failures
*/
func (repository *PostgresIssueRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Issue, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE 1=1`,
		schema.IssuesIssue.ID, schema.IssuesIssue.IssueType, schema.IssuesIssue.Status,
		schema.IssuesIssue.MediaID, schema.IssuesIssue.ProblemSeason, schema.IssuesIssue.ProblemEpisode,
		schema.IssuesIssue.CreatedByID, schema.IssuesIssue.ModifiedByID,
		schema.IssuesIssue.CreatedAt, schema.IssuesIssue.UpdatedAt,
		schema.IssuesIssue.Table,
	)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE 1=1`, schema.IssuesIssue.Table)

	args := []any{}
	countArgs := []any{}

	if filter.Status != "" {
		clause := fmt.Sprintf(" AND %s = $%d", schema.IssuesIssue.Status, len(args)+1)
		query += clause
		countQuery += fmt.Sprintf(" AND %s = $%d", schema.IssuesIssue.Status, len(countArgs)+1)
		args = append(args, filter.Status)
		countArgs = append(countArgs, filter.Status)
	}

	if filter.CreatedByID != 0 {
		query += fmt.Sprintf(" AND %s = $%d", schema.IssuesIssue.CreatedByID, len(args)+1)
		countQuery += fmt.Sprintf(" AND %s = $%d", schema.IssuesIssue.CreatedByID, len(countArgs)+1)
		args = append(args, filter.CreatedByID)
		countArgs = append(countArgs, filter.CreatedByID)
	}

	if filter.MediaID != 0 {
		query += fmt.Sprintf(" AND %s = $%d", schema.IssuesIssue.MediaID, len(args)+1)
		countQuery += fmt.Sprintf(" AND %s = $%d", schema.IssuesIssue.MediaID, len(countArgs)+1)
		args = append(args, filter.MediaID)
		countArgs = append(countArgs, filter.MediaID)
	}

	var total int
	if err := repository.pool.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_issue_repo_count_failed: %w", err)
	}

	query += fmt.Sprintf(" ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		schema.IssuesIssue.CreatedAt, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_issue_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var items []*Issue
	for rows.Next() {
		issue := &Issue{}
		if err := rows.Scan(
			&issue.ID,
			&issue.IssueType,
			&issue.Status,
			&issue.MediaID,
			&issue.ProblemSeason,
			&issue.ProblemEpisode,
			&issue.CreatedByID,
			&issue.ModifiedByID,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_issue_repo_scan_failed: %w", err)
		}
		items = append(items, issue)
	}

	return items, total, nil
}

/*
UpdateStatus transitions an issue's lifecycle state.

Parameters:
  - context: context.Context
  - issueID: int64
  - status: IssueStatus
  - modifiedByID: int64

Returns:
  - error: Execution failures
*/
func (repository *PostgresIssueRepository) UpdateStatus(context context.Context, issueID int64, status IssueStatus, modifiedByID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1`,
		schema.IssuesIssue.Table,
		schema.IssuesIssue.Status, schema.IssuesIssue.ModifiedByID, schema.IssuesIssue.UpdatedAt,
		schema.IssuesIssue.ID,
	)

	_, err := repository.pool.Exec(context, query, issueID, status, modifiedByID)
	if err != nil {
		return fmt.Errorf("postgres_issue_repo_update_status_failed: %w", err)
	}
	return nil
}

/*
Delete permanently removes an issue. Comments cascade at the schema level.

Parameters:
  - context: context.Context
  - issueID: int64

Returns:
  - error: Execution failures
*/
func (repository *PostgresIssueRepository) Delete(context context.Context, issueID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.IssuesIssue.Table, schema.IssuesIssue.ID)
	_, err := repository.pool.Exec(context, query, issueID)
	if err != nil {
		return fmt.Errorf("postgres_issue_repo_delete_failed: %w", err)
	}
	return nil
}

// # Comment Repository

// PostgresCommentRepository implements [CommentRepository] using pgx.
type PostgresCommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new Postgres implementation of CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

/*
Create appends a comment to an issue's thread.

Parameters:
  - context: context.Context
  - comment: *Comment

Returns:
  - error: Storage failures
*/
func (repository *PostgresCommentRepository) Create(context context.Context, comment *Comment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING %s, %s, %s`,
		schema.IssuesComment.Table,
		schema.IssuesComment.IssueID, schema.IssuesComment.UserID, schema.IssuesComment.Message,
		schema.IssuesComment.AttachmentPath,
		schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
		schema.IssuesComment.ID, schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		comment.IssueID,
		comment.UserID,
		comment.Message,
		comment.AttachmentPath,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "create_comment")
	}

	return nil
}

/*
FindByID retrieves a single comment.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Comment: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresCommentRepository) FindByID(context context.Context, id int64) (*Comment, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.IssuesComment.ID, schema.IssuesComment.IssueID, schema.IssuesComment.UserID,
		schema.IssuesComment.Message, schema.IssuesComment.AttachmentPath,
		schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
		schema.IssuesComment.Table, schema.IssuesComment.ID,
	)

	comment := &Comment{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&comment.ID,
		&comment.IssueID,
		&comment.UserID,
		&comment.Message,
		&comment.AttachmentPath,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, fmt.Errorf("postgres_comment_repo_find_by_id_failed: %w", err)
	}

	return comment, nil
}

/*
FirstForIssue returns the lowest-ID comment of an issue.

Parameters:
  - context: context.Context
  - issueID: int64

Returns:
  - *Comment: The reporter's original description
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresCommentRepository) FirstForIssue(context context.Context, issueID int64) (*Comment, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
		LIMIT 1`,
		schema.IssuesComment.ID, schema.IssuesComment.IssueID, schema.IssuesComment.UserID,
		schema.IssuesComment.Message, schema.IssuesComment.AttachmentPath,
		schema.IssuesComment.CreatedAt, schema.IssuesComment.UpdatedAt,
		schema.IssuesComment.Table, schema.IssuesComment.IssueID, schema.IssuesComment.ID,
	)

	comment := &Comment{}
	err := repository.pool.QueryRow(context, query, issueID).Scan(
		&comment.ID,
		&comment.IssueID,
		&comment.UserID,
		&comment.Message,
		&comment.AttachmentPath,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, fmt.Errorf("postgres_comment_repo_first_for_issue_failed: %w", err)
	}

	return comment, nil
}

/*
Delete removes a single comment.

Parameters:
  - context: context.Context
  - commentID: int64

Returns:
  - error: Execution failures
*/
func (repository *PostgresCommentRepository) Delete(context context.Context, commentID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.IssuesComment.Table, schema.IssuesComment.ID)
	_, err := repository.pool.Exec(context, query, commentID)
	if err != nil {
		return fmt.Errorf("postgres_comment_repo_delete_failed: %w", err)
	}
	return nil
}
