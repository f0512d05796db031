// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notifications implements the issue lifecycle notification engine.

Issue events (reported, resolved, reopened, commented) are classified,
enriched with catalog metadata, composed into transport-neutral payloads,
and handed to external senders. Delivery is strictly fire-and-forget: a
dead webhook endpoint can never fail an issue operation.

# Architecture

  - Payload: The composed, transport-neutral notification.
  - Sender: One external channel (webhook today) with its own async
    worker pool.
  - Manager: Fans a payload out to every registered sender.
  - Engine: Observes issue lifecycle events, decides recipients, and
    dispatches on a background goroutine, swallowing every error.
*/
package notifications

import (
	"context"
	"log/slog"

	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Notification Kinds

// Kind classifies a notification-worthy issue event.
type Kind string

const (
	KindIssueCreated  Kind = "issue_created"
	KindIssueResolved Kind = "issue_resolved"
	KindIssueReopened Kind = "issue_reopened"
	KindIssueComment  Kind = "issue_comment"

	// KindTestNotification is an operator-triggered delivery check. It never
	// originates from an issue event.
	KindTestNotification Kind = "test_notification"
)

// IsValid reports whether the kind is a known event class.
func (kind Kind) IsValid() bool {
	switch kind {
	case KindIssueCreated, KindIssueResolved, KindIssueReopened, KindIssueComment, KindTestNotification:
		return true
	}
	return false
}

// # Payload

// ExtraField is one named key/value pair attached to a notification.
type ExtraField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Payload is a fully composed, transport-neutral notification.
type Payload struct {
	// Kind classifies the underlying event.
	Kind Kind `json:"kind"`

	// Event is the human-readable event label, e.g. "New Video Issue Reported".
	Event string `json:"event"`

	// Subject names the affected media title, e.g. "Jurassic Park (1993)".
	Subject string `json:"subject"`

	// Message carries the issue's original report text (the first comment),
	// regardless of which event produced the notification.
	Message string `json:"message"`

	// Image is an absolute URL to a snapshot attachment or the title's poster.
	Image string `json:"image,omitempty"`

	// Extra holds ordered supplemental fields (affected season/episode).
	Extra []ExtraField `json:"extra,omitempty"`

	// IssueID references the originating issue.
	IssueID int64 `json:"issue_id"`

	// CommentID references the triggering comment, when one exists.
	CommentID int64 `json:"comment_id,omitempty"`

	// NotifyAdmin requests delivery to administrator channels. Always true.
	NotifyAdmin bool `json:"notify_admin"`

	// NotifySystem requests delivery to system-wide channels. Always true.
	NotifySystem bool `json:"notify_system"`

	// NotifyUser is the single end user to notify directly, if any.
	NotifyUser *auth.User `json:"notify_user,omitempty"`
}

// # Sender Contract

// Sender is one external notification channel. Each implementation owns its
// async delivery and never blocks the dispatcher.
type Sender interface {
	// Name returns the sender's identifier (e.g. "webhook").
	Name() string

	// ShouldSend reports whether this sender is interested in the given
	// event class. Uninterested senders are skipped at dispatch time.
	ShouldSend(kind Kind) bool

	// Send enqueues a payload for delivery. It must return promptly; actual
	// delivery happens on the sender's own workers.
	Send(context context.Context, payload Payload) error

	// Start launches the sender's background workers. Non-blocking.
	Start(context context.Context)
}

// # Manager

// Manager fans composed payloads out to every registered sender.
//
// With no senders configured it degrades to a logging no-op, which keeps
// single-binary deployments working without any notification endpoint.
type Manager struct {
	senders []Sender
	logger  *slog.Logger
}

// NewManager constructs a [Manager] over the given senders.
func NewManager(senders []Sender, logger *slog.Logger) *Manager {
	return &Manager{senders: senders, logger: logger}
}

// Start launches every sender's background workers. Non-blocking.
func (manager *Manager) Start(context context.Context) {
	for _, sender := range manager.senders {
		sender.Start(context)
		manager.logger.Info("notification_sender_started", slog.String("sender", sender.Name()))
	}
}

// Dispatch hands the payload to every sender. Individual sender failures are
// logged and swallowed; one broken channel never starves the others.
func (manager *Manager) Dispatch(context context.Context, payload Payload) {
	if len(manager.senders) == 0 {
		manager.logger.Debug("notification_dropped_no_senders",
			slog.String("kind", string(payload.Kind)),
			slog.Int64("issue_id", payload.IssueID),
		)
		return
	}

	for _, sender := range manager.senders {
		if !sender.ShouldSend(payload.Kind) {
			continue
		}
		if err := sender.Send(context, payload); err != nil {
			manager.logger.Warn("notification_sender_enqueue_failed",
				slog.String("sender", sender.Name()),
				slog.String("kind", string(payload.Kind)),
				slog.Int64("issue_id", payload.IssueID),
				slog.String("error", err.Error()),
			)
		}
	}
}
