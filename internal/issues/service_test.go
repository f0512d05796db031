// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package issues_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinara/internal/catalog"
	"github.com/taibuivan/cinara/internal/issues"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Test Doubles

type fakeUserDirectory struct {
	users map[int64]*auth.User
}

func (d *fakeUserDirectory) FindByID(_ context.Context, id int64) (*auth.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

type fakeIssueRepository struct {
	issues map[int64]*issues.Issue
	nextID int64

	updatedStatus  []issues.IssueStatus
	deletedIDs     []int64
	listFilter     issues.Filter
	listCalled     bool
	createErr      error
	updateStatErr  error
	deleteCalled   bool
	lastModifiedBy int64
}

func newFakeIssueRepository() *fakeIssueRepository {
	return &fakeIssueRepository{issues: map[int64]*issues.Issue{}, nextID: 1}
}

func (r *fakeIssueRepository) CreateWithComment(_ context.Context, issue *issues.Issue, comment *issues.Comment) error {
	if r.createErr != nil {
		return r.createErr
	}
	issue.ID = r.nextID
	r.nextID++
	comment.ID = issue.ID * 100
	comment.IssueID = issue.ID
	issue.Comments = []*issues.Comment{comment}
	r.issues[issue.ID] = issue
	return nil
}

func (r *fakeIssueRepository) FindByID(_ context.Context, id int64) (*issues.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, apperr.NotFound("Issue not found")
	}
	return issue, nil
}

func (r *fakeIssueRepository) List(_ context.Context, filter issues.Filter, _, _ int) ([]*issues.Issue, int, error) {
	r.listCalled = true
	r.listFilter = filter
	var out []*issues.Issue
	for _, issue := range r.issues {
		if filter.CreatedByID != 0 && issue.CreatedByID != filter.CreatedByID {
			continue
		}
		out = append(out, issue)
	}
	return out, len(out), nil
}

func (r *fakeIssueRepository) UpdateStatus(_ context.Context, issueID int64, status issues.IssueStatus, modifiedByID int64) error {
	if r.updateStatErr != nil {
		return r.updateStatErr
	}
	r.updatedStatus = append(r.updatedStatus, status)
	r.lastModifiedBy = modifiedByID
	r.issues[issueID].Status = status
	return nil
}

func (r *fakeIssueRepository) Delete(_ context.Context, issueID int64) error {
	r.deleteCalled = true
	r.deletedIDs = append(r.deletedIDs, issueID)
	delete(r.issues, issueID)
	return nil
}

type fakeCommentRepository struct {
	nextID   int64
	comments map[int64]*issues.Comment
}

func newFakeCommentRepository() *fakeCommentRepository {
	return &fakeCommentRepository{nextID: 1000, comments: map[int64]*issues.Comment{}}
}

func (r *fakeCommentRepository) Create(_ context.Context, comment *issues.Comment) error {
	comment.ID = r.nextID
	r.nextID++
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepository) FindByID(_ context.Context, id int64) (*issues.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, apperr.NotFound("Comment not found")
	}
	return comment, nil
}

func (r *fakeCommentRepository) FirstForIssue(_ context.Context, issueID int64) (*issues.Comment, error) {
	var first *issues.Comment
	for _, comment := range r.comments {
		if comment.IssueID != issueID {
			continue
		}
		if first == nil || comment.ID < first.ID {
			first = comment
		}
	}
	if first == nil {
		return nil, apperr.NotFound("Comment not found")
	}
	return first, nil
}

func (r *fakeCommentRepository) Delete(_ context.Context, id int64) error {
	delete(r.comments, id)
	return nil
}

type fakeCatalog struct {
	movie *catalog.Movie
	show  *catalog.TVShow
	err   error
}

func (c *fakeCatalog) GetMovie(_ context.Context, _ int64) (*catalog.Movie, error) {
	return c.movie, c.err
}

func (c *fakeCatalog) GetTVShow(_ context.Context, _ int64) (*catalog.TVShow, error) {
	return c.show, c.err
}

type fakeMediaResolver struct {
	rows          map[int64]*media.Media
	resolvedTitle string
}

func (m *fakeMediaResolver) Get(_ context.Context, id int64) (*media.Media, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("Media not found")
	}
	return row, nil
}

func (m *fakeMediaResolver) Resolve(_ context.Context, mediaType media.MediaType, tmdbID int64, title string) (*media.Media, error) {
	m.resolvedTitle = title
	row := &media.Media{ID: 9, MediaType: mediaType, TmdbID: tmdbID, Title: title}
	if m.rows == nil {
		m.rows = map[int64]*media.Media{}
	}
	m.rows[row.ID] = row
	return row, nil
}

// recordingNotifier counts lifecycle events synchronously.
type recordingNotifier struct {
	created       int
	statusChanged int
	commented     int
	lastReporter  *auth.User
	lastComment   *issues.Comment
}

func (n *recordingNotifier) IssueCreated(_ context.Context, _ *issues.Issue, reporter *auth.User) {
	n.created++
	n.lastReporter = reporter
}

func (n *recordingNotifier) IssueStatusChanged(_ context.Context, _ *issues.Issue, _ *auth.User, reporter *auth.User) {
	n.statusChanged++
	n.lastReporter = reporter
}

func (n *recordingNotifier) CommentCreated(_ context.Context, _ *issues.Issue, comment *issues.Comment, _ *auth.User, reporter *auth.User) {
	n.commented++
	n.lastComment = comment
	n.lastReporter = reporter
}

// # Fixture Wiring

type serviceFixture struct {
	service  *issues.Service
	issues   *fakeIssueRepository
	comments *fakeCommentRepository
	resolver *fakeMediaResolver
	notifier *recordingNotifier
}

func newServiceFixture(users ...*auth.User) *serviceFixture {
	directory := &fakeUserDirectory{users: map[int64]*auth.User{}}
	for _, user := range users {
		directory.users[user.ID] = user
	}

	issueRepo := newFakeIssueRepository()
	commentRepo := newFakeCommentRepository()
	resolver := &fakeMediaResolver{}
	notifier := &recordingNotifier{}
	catalogClient := &fakeCatalog{
		movie: &catalog.Movie{ID: 329, Title: "Jurassic Park", ReleaseDate: "1993-06-11"},
		show:  &catalog.TVShow{ID: 1399, Name: "Slow Horses", FirstAirDate: "2022-04-01"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &serviceFixture{
		service:  issues.NewService(issueRepo, commentRepo, directory, catalogClient, resolver, notifier, logger),
		issues:   issueRepo,
		comments: commentRepo,
		resolver: resolver,
		notifier: notifier,
	}
}

func member(id int64) *auth.User {
	return &auth.User{ID: id, Username: "member", Permissions: permissions.Default}
}

func operator(id int64) *auth.User {
	return &auth.User{ID: id, Username: "ops", Permissions: permissions.Default | permissions.PermissionManageIssues}
}

func requireForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

// # Reporting

/*
TestService_Create covers the report path: capability enforcement, catalog
title resolution, atomic persistence, and the created event.
*/
func TestService_Create(t *testing.T) {
	t.Run("member_reports_movie_issue", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)

		issue, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie,
			TmdbID:    329,
			IssueType: issues.TypeVideo,
			Message:   "Playback stutters at 12:30.",
		})
		require.NoError(t, err)

		assert.Equal(t, issues.StatusOpen, issue.Status)
		assert.Equal(t, reporter.ID, issue.CreatedByID)
		require.Len(t, issue.Comments, 1)
		assert.Equal(t, "Playback stutters at 12:30.", issue.Comments[0].Message)
		assert.Equal(t, "Jurassic Park", fixture.resolver.resolvedTitle)
		assert.Equal(t, 1, fixture.notifier.created)
	})

	t.Run("catalog_outage_degrades_to_placeholder", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)
		fixture.service = issues.NewService(
			fixture.issues, fixture.comments,
			&fakeUserDirectory{users: map[int64]*auth.User{reporter.ID: reporter}},
			&fakeCatalog{err: apperr.Unavailable("catalog", context.DeadlineExceeded)},
			fixture.resolver, fixture.notifier,
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		_, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie,
			TmdbID:    329,
			IssueType: issues.TypeVideo,
			Message:   "No audio track.",
		})
		require.NoError(t, err)
		assert.Empty(t, fixture.resolver.resolvedTitle, "resolver decides the placeholder when the catalog is down")
	})

	t.Run("missing_capability", func(t *testing.T) {
		stripped := &auth.User{ID: 8, Username: "lurker", Permissions: permissions.Default &^ permissions.PermissionCreateIssues}
		fixture := newServiceFixture(stripped)

		_, err := fixture.service.Create(context.Background(), stripped.ID, issues.CreateInput{
			MediaType: media.TypeMovie,
			TmdbID:    329,
			IssueType: issues.TypeVideo,
			Message:   "Playback stutters.",
		})
		requireForbidden(t, err)
		assert.Zero(t, fixture.notifier.created)
	})

	t.Run("empty_message", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)

		_, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie,
			TmdbID:    329,
			IssueType: issues.TypeVideo,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("unknown_issue_type", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)

		_, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie,
			TmdbID:    329,
			IssueType: issues.IssueType("codec"),
			Message:   "Broken.",
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

// # Reading

/*
TestService_Get verifies the visibility rules: reporters see their own
issues, everyone else needs ViewIssues or ManageIssues.
*/
func TestService_Get(t *testing.T) {
	reporter := member(7)
	stranger := member(8)
	viewer := &auth.User{ID: 9, Username: "viewer", Permissions: permissions.Default | permissions.PermissionViewIssues}
	ops := operator(2)

	fixture := newServiceFixture(reporter, stranger, viewer, ops)
	created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
		MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		actorID   int64
		forbidden bool
	}{
		{"reporter_sees_own", reporter.ID, false},
		{"stranger_denied", stranger.ID, true},
		{"view_capability_allows", viewer.ID, false},
		{"manage_capability_allows", ops.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, err := fixture.service.Get(context.Background(), tt.actorID, created.ID)
			if tt.forbidden {
				requireForbidden(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, issue.ID)
		})
	}
}

/*
TestService_List_RestrictsUnprivileged verifies that members without a view
capability are silently scoped to their own reports.
*/
func TestService_List_RestrictsUnprivileged(t *testing.T) {
	reporter := member(7)
	ops := operator(2)
	fixture := newServiceFixture(reporter, ops)

	_, _, err := fixture.service.List(context.Background(), reporter.ID, issues.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, reporter.ID, fixture.issues.listFilter.CreatedByID)

	_, _, err = fixture.service.List(context.Background(), ops.ID, issues.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Zero(t, fixture.issues.listFilter.CreatedByID, "operators list everything")
}

// # Triage

/*
TestService_UpdateStatus covers transitions, the idempotent no-op, and
capability enforcement.
*/
func TestService_UpdateStatus(t *testing.T) {
	t.Run("operator_resolves", func(t *testing.T) {
		reporter := member(7)
		ops := operator(2)
		fixture := newServiceFixture(reporter, ops)
		created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
		})
		require.NoError(t, err)

		updated, err := fixture.service.UpdateStatus(context.Background(), ops.ID, created.ID, issues.StatusResolved)
		require.NoError(t, err)

		assert.Equal(t, issues.StatusResolved, updated.Status)
		require.NotNil(t, updated.ModifiedByID)
		assert.Equal(t, ops.ID, *updated.ModifiedByID)
		assert.Equal(t, 1, fixture.notifier.statusChanged)
		require.NotNil(t, fixture.notifier.lastReporter)
		assert.Equal(t, reporter.ID, fixture.notifier.lastReporter.ID)
	})

	t.Run("same_status_is_a_noop", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)
		created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
		})
		require.NoError(t, err)

		updated, err := fixture.service.UpdateStatus(context.Background(), reporter.ID, created.ID, issues.StatusOpen)
		require.NoError(t, err)

		assert.Equal(t, issues.StatusOpen, updated.Status)
		assert.Empty(t, fixture.issues.updatedStatus, "no write for an unchanged status")
		assert.Zero(t, fixture.notifier.statusChanged, "no event for an unchanged status")
	})

	t.Run("reporter_reopens_own_issue", func(t *testing.T) {
		reporter := member(7)
		ops := operator(2)
		fixture := newServiceFixture(reporter, ops)
		created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
		})
		require.NoError(t, err)

		_, err = fixture.service.UpdateStatus(context.Background(), ops.ID, created.ID, issues.StatusResolved)
		require.NoError(t, err)

		updated, err := fixture.service.UpdateStatus(context.Background(), reporter.ID, created.ID, issues.StatusOpen)
		require.NoError(t, err)
		assert.Equal(t, issues.StatusOpen, updated.Status)
		assert.Equal(t, 2, fixture.notifier.statusChanged)
	})

	t.Run("stranger_denied", func(t *testing.T) {
		reporter := member(7)
		stranger := member(8)
		fixture := newServiceFixture(reporter, stranger)
		created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
		})
		require.NoError(t, err)

		_, err = fixture.service.UpdateStatus(context.Background(), stranger.ID, created.ID, issues.StatusResolved)
		requireForbidden(t, err)
	})

	t.Run("unknown_status", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)

		_, err := fixture.service.UpdateStatus(context.Background(), reporter.ID, 1, issues.IssueStatus("parked"))
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestService_Delete verifies that only the reporter or an issue manager can
remove an issue.
*/
func TestService_Delete(t *testing.T) {
	reporter := member(7)
	stranger := member(8)
	fixture := newServiceFixture(reporter, stranger)
	created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
		MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
	})
	require.NoError(t, err)

	err = fixture.service.Delete(context.Background(), stranger.ID, created.ID)
	requireForbidden(t, err)
	assert.False(t, fixture.issues.deleteCalled)

	err = fixture.service.Delete(context.Background(), reporter.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{created.ID}, fixture.issues.deletedIDs)
}

// # Conversation

/*
TestService_AddComment covers the comment path: capability enforcement and
the event fired for every persisted comment.
*/
func TestService_AddComment(t *testing.T) {
	t.Run("operator_comments_and_event_fires", func(t *testing.T) {
		reporter := member(7)
		ops := operator(2)
		fixture := newServiceFixture(reporter, ops)
		created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
		})
		require.NoError(t, err)

		comment, err := fixture.service.AddComment(context.Background(), ops.ID, created.ID, "Transcoding fixed it.", "")
		require.NoError(t, err)

		assert.Equal(t, ops.ID, comment.UserID)
		assert.Equal(t, 1, fixture.notifier.commented)
		assert.Equal(t, comment.ID, fixture.notifier.lastComment.ID)
		require.NotNil(t, fixture.notifier.lastReporter)
		assert.Equal(t, reporter.ID, fixture.notifier.lastReporter.ID)
	})

	t.Run("stranger_denied", func(t *testing.T) {
		reporter := member(7)
		stranger := member(8)
		fixture := newServiceFixture(reporter, stranger)
		created, err := fixture.service.Create(context.Background(), reporter.ID, issues.CreateInput{
			MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Broken.",
		})
		require.NoError(t, err)

		_, err = fixture.service.AddComment(context.Background(), stranger.ID, created.ID, "Me too.", "")
		requireForbidden(t, err)
	})

	t.Run("empty_message", func(t *testing.T) {
		reporter := member(7)
		fixture := newServiceFixture(reporter)

		_, err := fixture.service.AddComment(context.Background(), reporter.ID, 1, "", "")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

// # Comment Access

// threadFixture files an issue by the reporter and registers its description
// in the comment store so comment-level lookups can see the whole thread.
func threadFixture(t *testing.T, users ...*auth.User) (*serviceFixture, *issues.Issue) {
	t.Helper()
	fixture := newServiceFixture(users...)
	created, err := fixture.service.Create(context.Background(), users[0].ID, issues.CreateInput{
		MediaType: media.TypeMovie, TmdbID: 329, IssueType: issues.TypeVideo, Message: "Playback stutters at 12:30.",
	})
	require.NoError(t, err)
	first := created.Comments[0]
	fixture.comments.comments[first.ID] = first
	return fixture, created
}

/*
TestService_GetComment verifies comment visibility: thread participants read
freely, everyone else needs the ViewIssues capability.
*/
func TestService_GetComment(t *testing.T) {
	t.Run("reporter_reads_follow_up", func(t *testing.T) {
		reporter := member(7)
		ops := operator(2)
		fixture, created := threadFixture(t, reporter, ops)

		followUp, err := fixture.service.AddComment(context.Background(), ops.ID, created.ID, "Transcoding fixed it.", "")
		require.NoError(t, err)

		got, err := fixture.service.GetComment(context.Background(), reporter.ID, followUp.ID)
		require.NoError(t, err)
		assert.Equal(t, "Transcoding fixed it.", got.Message)
	})

	t.Run("stranger_denied", func(t *testing.T) {
		reporter := member(7)
		stranger := member(9)
		fixture, created := threadFixture(t, reporter, stranger)

		_, err := fixture.service.GetComment(context.Background(), stranger.ID, created.Comments[0].ID)
		requireForbidden(t, err)
	})

	t.Run("unknown_comment", func(t *testing.T) {
		reporter := member(7)
		fixture, _ := threadFixture(t, reporter)

		_, err := fixture.service.GetComment(context.Background(), reporter.ID, 404404)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

/*
TestService_DeleteComment verifies follow-up removal: authors and operators
may delete, strangers may not, and the issue description is untouchable.
*/
func TestService_DeleteComment(t *testing.T) {
	t.Run("author_deletes_own_follow_up", func(t *testing.T) {
		reporter := member(7)
		fixture, created := threadFixture(t, reporter)

		followUp, err := fixture.service.AddComment(context.Background(), reporter.ID, created.ID, "Never mind, fixed.", "")
		require.NoError(t, err)

		require.NoError(t, fixture.service.DeleteComment(context.Background(), reporter.ID, followUp.ID))

		_, err = fixture.service.GetComment(context.Background(), reporter.ID, followUp.ID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})

	t.Run("operator_deletes_anothers_comment", func(t *testing.T) {
		reporter := member(7)
		ops := operator(2)
		fixture, created := threadFixture(t, reporter, ops)

		followUp, err := fixture.service.AddComment(context.Background(), reporter.ID, created.ID, "Still broken.", "")
		require.NoError(t, err)

		require.NoError(t, fixture.service.DeleteComment(context.Background(), ops.ID, followUp.ID))
	})

	t.Run("stranger_denied", func(t *testing.T) {
		reporter := member(7)
		ops := operator(2)
		stranger := member(9)
		fixture, created := threadFixture(t, reporter, ops, stranger)

		followUp, err := fixture.service.AddComment(context.Background(), ops.ID, created.ID, "Looking into it.", "")
		require.NoError(t, err)

		requireForbidden(t, fixture.service.DeleteComment(context.Background(), stranger.ID, followUp.ID))
	})

	t.Run("issue_description_is_untouchable", func(t *testing.T) {
		reporter := member(7)
		fixture, created := threadFixture(t, reporter)

		err := fixture.service.DeleteComment(context.Background(), reporter.ID, created.Comments[0].ID)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)

		// The description is still there
		_, err = fixture.service.GetComment(context.Background(), reporter.ID, created.Comments[0].ID)
		require.NoError(t, err)
	})
}
