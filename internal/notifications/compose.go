// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notifications

import (
	"strconv"

	"github.com/taibuivan/cinara/internal/issues"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Event Classification

// EventLabel renders the human-readable event line for a notification kind.
// The issue type is woven in for the concrete categories and omitted for
// "other", e.g. "New Video Issue Reported" vs "New Issue Reported".
func EventLabel(kind Kind, issueType issues.IssueType) string {
	typeLabel := issueType.Label()
	spaced := typeLabel
	if spaced != "" {
		spaced += " "
	}

	switch kind {
	case KindIssueCreated:
		return "New " + spaced + "Issue Reported"
	case KindIssueResolved:
		return spaced + "Issue Resolved"
	case KindIssueReopened:
		return spaced + "Issue Reopened"
	case KindIssueComment:
		if typeLabel != "" {
			return "New Comment on " + typeLabel + " Issue"
		}
		return "New Comment on Issue"
	}
	return ""
}

// StatusKind maps a lifecycle transition onto its notification kind.
// Resolving yields KindIssueResolved; reopening yields KindIssueReopened.
func StatusKind(status issues.IssueStatus) Kind {
	if status == issues.StatusResolved {
		return KindIssueResolved
	}
	return KindIssueReopened
}

// # Extras

// SeasonEpisodeExtras builds the ordered supplemental fields for series
// issues: the affected season, then the affected episode. Movie issues and
// season zero produce no extras; an episode is only named inside a season.
func SeasonEpisodeExtras(mediaType media.MediaType, season, episode int) []ExtraField {
	if mediaType != media.TypeTV || season <= 0 {
		return nil
	}

	extras := []ExtraField{
		{Name: "Affected Season", Value: strconv.Itoa(season)},
	}
	if episode > 0 {
		extras = append(extras, ExtraField{Name: "Affected Episode", Value: strconv.Itoa(episode)})
	}
	return extras
}

// # Imagery

// ResolveImage picks the notification image: a snapshot attachment uploaded
// with the comment wins over the catalog poster. Attachment paths are
// relative and resolved against the application URL.
func ResolveImage(applicationURL, attachmentPath, posterURL string) string {
	if attachmentPath != "" {
		return applicationURL + attachmentPath
	}
	return posterURL
}

// # Recipients

// DirectRecipient decides which single end user, if any, gets a direct copy
// of the notification.
//
// The reporter is notified when all of these hold:
//   - the event is not the initial report (reporters know what they filed),
//   - the reporter does not hold ManageIssues (operators already receive
//     every event on the admin channel),
//   - the acting user is not the reporter themselves.
func DirectRecipient(kind Kind, actor, reporter *auth.User) *auth.User {
	if kind == KindIssueCreated || reporter == nil {
		return nil
	}
	if reporter.HasPermission(permissions.PermissionManageIssues) {
		return nil
	}
	if actor != nil && actor.ID == reporter.ID {
		return nil
	}
	return reporter
}
