// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles user profile management, permission administration,
and security settings.

It provides functionalities for users to view and update their private identity
data and manage their active device sessions, and for privileged operators to
inspect and edit the permission grants of other members.

# Architecture

  - Entities: PermissionOption (DTO), SessionInfo (DTO).
  - Domain: This package depends on the auth package for the User entity and
    on the permissions package for grant evaluation.
  - Security: Provides session transparency, revocation, and grant editing.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Domain Entities

// PermissionOption is the transport view of one evaluated capability node.
// It mirrors [permissions.Option] with the per-user checked/disabled state
// resolved, ready for a permission editor to render.
type PermissionOption struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Permission  int64              `json:"permission"`
	Checked     bool               `json:"checked"`
	Disabled    bool               `json:"disabled"`
	Children    []PermissionOption `json:"children,omitempty"`
}

// SessionInfo provides a safety-mapped view of an active user session.
// It omits sensitive token hashes for transport.
type SessionInfo struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"` // e.g. "Chrome on Windows"
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsCurrent  bool      `json:"is_current"` // True if this session belongs to the current request
}

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: int64 (bigserial)

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*auth.User, error)

	/*
		List returns a page of user accounts ordered by ID.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*auth.User: Page of accounts
		  - int: Total account count
		  - error: Retrieval failures
	*/
	List(context context.Context, limit, offset int) ([]*auth.User, int, error)

	/*
		Update modifies the mutable profile and permission fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		UpdatePermissions replaces only the permission mask of a user.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - mask: permissions.Permission

		Returns:
		  - error: Execution failures
	*/
	UpdatePermissions(context context.Context, userID int64, mask permissions.Permission) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id int64) error
}

// SessionRepository defines the visibility and revocation contract for user sessions.
type SessionRepository interface {
	/*
		FindActiveByUserID lists all valid, non-expired sessions for a user.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - []SessionInfo: List of active devices
		  - error: Retrieval errors
	*/
	FindActiveByUserID(context context.Context, userID int64) ([]SessionInfo, error)

	/*
		Revoke marks a specific session as revoked.

		Parameters:
		  - context: context.Context
		  - userID: int64 (Security constraint: owner validation)
		  - sessionID: string

		Returns:
		  - error: Revocation failures
	*/
	Revoke(context context.Context, userID int64, sessionID string) error

	/*
		RevokeOthers revokes all active sessions except for a target session.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - currentSessionID: string (The whitelist target)

		Returns:
		  - error: Revocation failures
	*/
	RevokeOthers(context context.Context, userID int64, currentSessionID string) error

	/*
		RevokeAll terminates every session for a user.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - error: Revocation failures
	*/
	RevokeAll(context context.Context, userID int64) error
}
