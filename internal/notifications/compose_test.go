// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notifications_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinara/internal/issues"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/notifications"
	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/users/auth"
)

/*
TestEventLabel verifies the human-readable event line for every notification
kind, including the typeless rendering for "other" issues.
*/
func TestEventLabel(t *testing.T) {
	tests := []struct {
		name      string
		kind      notifications.Kind
		issueType issues.IssueType
		want      string
	}{
		{"created_video", notifications.KindIssueCreated, issues.TypeVideo, "New Video Issue Reported"},
		{"created_audio", notifications.KindIssueCreated, issues.TypeAudio, "New Audio Issue Reported"},
		{"created_subtitle", notifications.KindIssueCreated, issues.TypeSubtitle, "New Subtitle Issue Reported"},
		{"created_other_omits_type", notifications.KindIssueCreated, issues.TypeOther, "New Issue Reported"},
		{"resolved_video", notifications.KindIssueResolved, issues.TypeVideo, "Video Issue Resolved"},
		{"resolved_other", notifications.KindIssueResolved, issues.TypeOther, "Issue Resolved"},
		{"reopened_audio", notifications.KindIssueReopened, issues.TypeAudio, "Audio Issue Reopened"},
		{"reopened_other", notifications.KindIssueReopened, issues.TypeOther, "Issue Reopened"},
		{"comment_subtitle", notifications.KindIssueComment, issues.TypeSubtitle, "New Comment on Subtitle Issue"},
		{"comment_other", notifications.KindIssueComment, issues.TypeOther, "New Comment on Issue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notifications.EventLabel(tt.kind, tt.issueType))
		})
	}
}

/*
TestStatusKind checks the mapping from a lifecycle transition's target
status onto its notification kind.
*/
func TestStatusKind(t *testing.T) {
	assert.Equal(t, notifications.KindIssueResolved, notifications.StatusKind(issues.StatusResolved))
	assert.Equal(t, notifications.KindIssueReopened, notifications.StatusKind(issues.StatusOpen))
}

/*
TestSeasonEpisodeExtras verifies the ordered supplemental fields for series
issues and their absence for movies and unscoped reports.
*/
func TestSeasonEpisodeExtras(t *testing.T) {
	tests := []struct {
		name      string
		mediaType media.MediaType
		season    int
		episode   int
		want      []notifications.ExtraField
	}{
		{
			name:      "movie_never_has_extras",
			mediaType: media.TypeMovie,
			season:    3,
			episode:   7,
			want:      nil,
		},
		{
			name:      "tv_without_season",
			mediaType: media.TypeTV,
			season:    0,
			episode:   7,
			want:      nil,
		},
		{
			name:      "tv_season_only",
			mediaType: media.TypeTV,
			season:    2,
			episode:   0,
			want: []notifications.ExtraField{
				{Name: "Affected Season", Value: "2"},
			},
		},
		{
			name:      "tv_season_and_episode",
			mediaType: media.TypeTV,
			season:    2,
			episode:   11,
			want: []notifications.ExtraField{
				{Name: "Affected Season", Value: "2"},
				{Name: "Affected Episode", Value: "11"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := notifications.SeasonEpisodeExtras(tt.mediaType, tt.season, tt.episode)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestResolveImage checks that a comment attachment supersedes the catalog
poster, and that attachment paths resolve against the application URL.
*/
func TestResolveImage(t *testing.T) {
	tests := []struct {
		name           string
		attachmentPath string
		posterURL      string
		want           string
	}{
		{
			name:           "attachment_wins",
			attachmentPath: "/uploads/snapshot.png",
			posterURL:      "https://image.example.org/t/p/w600/poster.jpg",
			want:           "https://cinara.example.org/uploads/snapshot.png",
		},
		{
			name:      "poster_fallback",
			posterURL: "https://image.example.org/t/p/w600/poster.jpg",
			want:      "https://image.example.org/t/p/w600/poster.jpg",
		},
		{
			name: "nothing_available",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := notifications.ResolveImage("https://cinara.example.org", tt.attachmentPath, tt.posterURL)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestDirectRecipient exercises the direct-recipient decision matrix: the
reporter is copied only on events they did not cause, and only when admin
channels do not already cover them.
*/
func TestDirectRecipient(t *testing.T) {
	reporter := &auth.User{ID: 7, Username: "moviefan", Permissions: permissions.Default}
	operator := &auth.User{ID: 2, Username: "ops", Permissions: permissions.Default | permissions.PermissionManageIssues}
	admin := &auth.User{ID: 3, Username: "root", Permissions: permissions.PermissionAdmin}

	tests := []struct {
		name     string
		kind     notifications.Kind
		actor    *auth.User
		reporter *auth.User
		want     *auth.User
	}{
		{"created_never_notifies_reporter", notifications.KindIssueCreated, operator, reporter, nil},
		{"resolved_by_operator", notifications.KindIssueResolved, operator, reporter, reporter},
		{"reopened_by_operator", notifications.KindIssueReopened, operator, reporter, reporter},
		{"comment_by_operator", notifications.KindIssueComment, operator, reporter, reporter},
		{"self_inflicted_event", notifications.KindIssueResolved, reporter, reporter, nil},
		{"reporter_is_operator", notifications.KindIssueResolved, admin, operator, nil},
		{"reporter_is_admin", notifications.KindIssueComment, operator, admin, nil},
		{"reporter_unknown", notifications.KindIssueResolved, operator, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := notifications.DirectRecipient(tt.kind, tt.actor, tt.reporter)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.ID, got.ID)
		})
	}
}
