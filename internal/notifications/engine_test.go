// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notifications_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinara/internal/catalog"
	"github.com/taibuivan/cinara/internal/issues"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/notifications"
	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Test Doubles

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

func (c *fakeCatalog) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return "https://image.example.org/t/p/w600" + posterPath
}

type fakeMediaDirectory struct {
	row *media.Media
	err error
}

func (d *fakeMediaDirectory) Get(_ context.Context, _ int64) (*media.Media, error) {
	return d.row, d.err
}

// recordingSender captures every dispatched payload and signals delivery.
type recordingSender struct {
	mu        sync.Mutex
	payloads  []notifications.Payload
	delivered chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{delivered: make(chan struct{}, 16)}
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) ShouldSend(notifications.Kind) bool { return true }

func (s *recordingSender) Start(_ context.Context) {}

func (s *recordingSender) Send(_ context.Context, payload notifications.Payload) error {
	s.mu.Lock()
	s.payloads = append(s.payloads, payload)
	s.mu.Unlock()
	s.delivered <- struct{}{}
	return nil
}

func (s *recordingSender) last(t *testing.T) notifications.Payload {
	t.Helper()
	select {
	case <-s.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a dispatched notification")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.payloads)
	return s.payloads[len(s.payloads)-1]
}

func (s *recordingSender) quiet(t *testing.T) {
	t.Helper()
	select {
	case <-s.delivered:
		t.Fatal("expected no notification to be dispatched")
	case <-time.After(100 * time.Millisecond):
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// # Fixtures

func movieIssue(issueType issues.IssueType) *issues.Issue {
	return &issues.Issue{
		ID:          41,
		IssueType:   issueType,
		Status:      issues.StatusOpen,
		MediaID:     9,
		CreatedByID: 7,
		Comments: []*issues.Comment{
			{ID: 100, IssueID: 41, UserID: 7, Message: "Playback stutters at 12:30."},
		},
	}
}

func tvIssue(season, episode int) *issues.Issue {
	issue := movieIssue(issues.TypeAudio)
	issue.ProblemSeason = season
	issue.ProblemEpisode = episode
	return issue
}

/*
TestEngine_BuildPayload_Movie composes a created event for a movie and
verifies subject, message, image, and recipients.
*/
func TestEngine_BuildPayload_Movie(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}

	catalogClient := &fakeCatalog{
		movie: &catalog.Movie{ID: 329, Title: "Jurassic Park", PosterPath: "/poster.jpg", ReleaseDate: "1993-06-11"},
	}
	directory := &fakeMediaDirectory{
		row: &media.Media{ID: 9, MediaType: media.TypeMovie, TmdbID: 329, Title: "Jurassic Park"},
	}

	engine := notifications.NewEngine(
		notifications.NewManager(nil, discardLogger()),
		catalogClient, directory, "https://cinara.example.org", discardLogger(),
	)

	issue := movieIssue(issues.TypeVideo)
	payload, err := engine.BuildPayload(context.Background(), notifications.KindIssueCreated, issue, issue.FirstComment(), reporter, reporter)
	require.NoError(t, err)

	assert.Equal(t, notifications.KindIssueCreated, payload.Kind)
	assert.Equal(t, "New Video Issue Reported", payload.Event)
	assert.Equal(t, "Jurassic Park (1993)", payload.Subject)
	assert.Equal(t, "Playback stutters at 12:30.", payload.Message)
	assert.Equal(t, "https://image.example.org/t/p/w600/poster.jpg", payload.Image)
	assert.Nil(t, payload.Extra)
	assert.Equal(t, int64(41), payload.IssueID)
	assert.True(t, payload.NotifyAdmin)
	assert.True(t, payload.NotifySystem)
	assert.Nil(t, payload.NotifyUser, "the initial report never notifies its own reporter")
}

/*
TestEngine_BuildPayload_TVExtras composes a status event for a series and
verifies season/episode extras and the direct recipient.
*/
func TestEngine_BuildPayload_TVExtras(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}
	operator := &auth.User{ID: 2, Username: "ops", Permissions: permissions.Default | permissions.PermissionManageIssues}

	catalogClient := &fakeCatalog{
		show: &catalog.TVShow{ID: 1399, Name: "Slow Horses", PosterPath: "/horses.jpg", FirstAirDate: "2022-04-01"},
	}
	directory := &fakeMediaDirectory{
		row: &media.Media{ID: 9, MediaType: media.TypeTV, TmdbID: 1399, Title: "Slow Horses"},
	}

	engine := notifications.NewEngine(
		notifications.NewManager(nil, discardLogger()),
		catalogClient, directory, "https://cinara.example.org", discardLogger(),
	)

	issue := tvIssue(2, 5)
	issue.Status = issues.StatusResolved
	payload, err := engine.BuildPayload(context.Background(), notifications.KindIssueResolved, issue, issue.FirstComment(), operator, reporter)
	require.NoError(t, err)

	assert.Equal(t, "Audio Issue Resolved", payload.Event)
	assert.Equal(t, "Slow Horses (2022)", payload.Subject)
	assert.Equal(t, []notifications.ExtraField{
		{Name: "Affected Season", Value: "2"},
		{Name: "Affected Episode", Value: "5"},
	}, payload.Extra)
	require.NotNil(t, payload.NotifyUser)
	assert.Equal(t, reporter.ID, payload.NotifyUser.ID)
}

/*
TestEngine_BuildPayload_CatalogOutage verifies that a catalog failure fails
the whole enrichment, so the event's notification is skipped rather than
sent half-composed.
*/
func TestEngine_BuildPayload_CatalogOutage(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}

	catalogClient := &fakeCatalog{err: apperr.Unavailable("catalog", context.DeadlineExceeded)}
	directory := &fakeMediaDirectory{
		row: &media.Media{ID: 9, MediaType: media.TypeMovie, TmdbID: 329, Title: "Jurassic Park"},
	}

	engine := notifications.NewEngine(
		notifications.NewManager(nil, discardLogger()),
		catalogClient, directory, "https://cinara.example.org", discardLogger(),
	)

	issue := movieIssue(issues.TypeVideo)
	_, err := engine.BuildPayload(context.Background(), notifications.KindIssueCreated, issue, issue.FirstComment(), reporter, reporter)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", ae.Code)
}

/*
TestEngine_BuildPayload_EmptyThread verifies the invariant guard: an issue
with no comments cannot produce a notification.
*/
func TestEngine_BuildPayload_EmptyThread(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}

	engine := notifications.NewEngine(
		notifications.NewManager(nil, discardLogger()),
		&fakeCatalog{}, &fakeMediaDirectory{}, "https://cinara.example.org", discardLogger(),
	)

	issue := movieIssue(issues.TypeVideo)
	issue.Comments = nil

	_, err := engine.BuildPayload(context.Background(), notifications.KindIssueCreated, issue, issue.FirstComment(), reporter, reporter)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "INVARIANT_VIOLATION", ae.Code)
}

/*
TestEngine_BuildPayload_AttachmentWins verifies that a comment snapshot
supersedes the catalog poster as the notification image.
*/
func TestEngine_BuildPayload_AttachmentWins(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}
	operator := &auth.User{ID: 2, Username: "ops", Permissions: permissions.Default | permissions.PermissionManageIssues}

	catalogClient := &fakeCatalog{
		movie: &catalog.Movie{ID: 329, Title: "Jurassic Park", PosterPath: "/poster.jpg", ReleaseDate: "1993-06-11"},
	}
	directory := &fakeMediaDirectory{
		row: &media.Media{ID: 9, MediaType: media.TypeMovie, TmdbID: 329, Title: "Jurassic Park"},
	}

	engine := notifications.NewEngine(
		notifications.NewManager(nil, discardLogger()),
		catalogClient, directory, "https://cinara.example.org", discardLogger(),
	)

	issue := movieIssue(issues.TypeVideo)
	comment := &issues.Comment{ID: 101, IssueID: 41, UserID: 2, Message: "Here is a frame grab.", AttachmentPath: "/uploads/frame.png"}
	issue.Comments = append(issue.Comments, comment)

	payload, err := engine.BuildPayload(context.Background(), notifications.KindIssueComment, issue, comment, operator, reporter)
	require.NoError(t, err)

	assert.Equal(t, "https://cinara.example.org/uploads/frame.png", payload.Image)
	assert.Equal(t, "Playback stutters at 12:30.", payload.Message)
	assert.Equal(t, int64(101), payload.CommentID)
}

/*
TestEngine_CommentCreated_SuppressesFirstComment verifies that the thread's
first comment, which is the issue description, never produces a comment
notification, while later comments do.
*/
func TestEngine_CommentCreated_SuppressesFirstComment(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}
	operator := &auth.User{ID: 2, Username: "ops", Permissions: permissions.Default | permissions.PermissionManageIssues}

	catalogClient := &fakeCatalog{
		movie: &catalog.Movie{ID: 329, Title: "Jurassic Park", PosterPath: "/poster.jpg", ReleaseDate: "1993-06-11"},
	}
	directory := &fakeMediaDirectory{
		row: &media.Media{ID: 9, MediaType: media.TypeMovie, TmdbID: 329, Title: "Jurassic Park"},
	}

	sender := newRecordingSender()
	engine := notifications.NewEngine(
		notifications.NewManager([]notifications.Sender{sender}, discardLogger()),
		catalogClient, directory, "https://cinara.example.org", discardLogger(),
	)

	issue := movieIssue(issues.TypeVideo)

	engine.CommentCreated(context.Background(), issue, issue.FirstComment(), reporter, reporter)
	sender.quiet(t)

	followUp := &issues.Comment{ID: 101, IssueID: 41, UserID: 2, Message: "Transcoding fixed it."}
	issue.Comments = append(issue.Comments, followUp)

	engine.CommentCreated(context.Background(), issue, followUp, operator, reporter)
	payload := sender.last(t)

	assert.Equal(t, notifications.KindIssueComment, payload.Kind)
	assert.Equal(t, "Playback stutters at 12:30.", payload.Message)
	require.NotNil(t, payload.NotifyUser)
	assert.Equal(t, reporter.ID, payload.NotifyUser.ID)
}
