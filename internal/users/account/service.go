// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/apperr"
	"github.com/taibuivan/cinara/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for user accounts and permission grants.
//
// It ensures that profile updates, grant edits, and session security cleanup
// follow established business constraints.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	features          permissions.Features
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	features permissions.Features,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		features:          features,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID int64) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

/*
ListUsers returns a page of registered accounts.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*auth.User: Page of accounts
  - int: Total account count
  - error: Retrieval failures
*/
func (service *Service) ListUsers(context context.Context, limit, offset int) ([]*auth.User, int, error) {
	users, total, err := service.accountRepository.List(context, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_users_failed: %w", err)
	}
	return users, total, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overries provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: int64
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID int64, input UpdateProfileInput) (*auth.User, error) {

	// Business: Ensure the user exists
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}

	// Apply delta updates
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.Int64("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted and immediately terminates all active
security sessions to force a global sign-out. The server owner account cannot
be deleted.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID int64) error {

	// Business: The owner account is permanent
	if userID == permissions.OwnerUserID {
		return apperr.Forbidden("The owner account cannot be deleted")
	}

	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	_ = service.sessionRepository.RevokeAll(context, userID)

	service.logger.Warn("user_account_deleted", slog.Int64("user_id", userID))

	return nil
}

// # Permission Administration

/*
PermissionOptions returns the evaluated capability tree for a target user.

Description: Walks the default capability tree and resolves each node's
checked/disabled state against the target's current grants, the acting
user's authority, and the 4K feature flags.

Parameters:
  - context: context.Context
  - actingUserID: int64 (The administrator viewing the editor)
  - targetUserID: int64 (The account whose grants are shown)

Returns:
  - []PermissionOption: Evaluated tree
  - error: Lookup failures
*/
func (service *Service) PermissionOptions(context context.Context, actingUserID, targetUserID int64) ([]PermissionOption, error) {
	target, err := service.accountRepository.FindByID(context, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("account_service_permission_options_failed: %w", err)
	}

	return service.evaluateTree(permissions.DefaultOptions(), nil, actingUserID, target), nil
}

// evaluateTree resolves the state of every node in options, recursing into children.
func (service *Service) evaluateTree(options []permissions.Option, parent *permissions.Option, actingUserID int64, target *auth.User) []PermissionOption {
	evaluated := make([]PermissionOption, 0, len(options))

	for _, option := range options {
		state := permissions.Evaluate(option, permissions.EvaluateInput{
			ActingUserID: actingUserID,
			TargetUserID: target.ID,
			Granted:      target.Permissions,
			Parent:       parent,
			Features:     service.features,
		})

		node := PermissionOption{
			ID:          option.ID,
			Name:        option.Name,
			Description: option.Description,
			Permission:  int64(option.Permission),
			Checked:     state.Checked,
			Disabled:    state.Disabled,
		}

		if len(option.Children) > 0 {
			current := option
			node.Children = service.evaluateTree(option.Children, &current, actingUserID, target)
		}

		evaluated = append(evaluated, node)
	}

	return evaluated
}

/*
UpdatePermissions replaces a target user's permission mask.

Description: Enforces the grant-editing constraints before persisting:
the owner's grants are immutable, only the owner may change the admin bit,
and administrators may not be edited by non-owners.

Parameters:
  - context: context.Context
  - actingUserID: int64
  - targetUserID: int64
  - mask: permissions.Permission (The full replacement bitmask)

Returns:
  - *auth.User: The updated target account
  - error: apperr.Forbidden or storage failures
*/
func (service *Service) UpdatePermissions(context context.Context, actingUserID, targetUserID int64, mask permissions.Permission) (*auth.User, error) {

	// The owner's grants can never be edited
	if targetUserID == permissions.OwnerUserID {
		return nil, apperr.Forbidden("The owner's permissions cannot be modified")
	}

	target, err := service.accountRepository.FindByID(context, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_permissions_lookup_failed: %w", err)
	}

	// Only the owner may grant or revoke the admin bit
	adminChanged := target.Permissions.Has(permissions.PermissionAdmin) != mask.Has(permissions.PermissionAdmin)
	if adminChanged && actingUserID != permissions.OwnerUserID {
		return nil, apperr.Forbidden("Only the owner may change administrator access")
	}

	// Administrators may only be edited by the owner
	if target.Permissions.Has(permissions.PermissionAdmin) && actingUserID != permissions.OwnerUserID {
		return nil, apperr.Forbidden("Administrator accounts may only be edited by the owner")
	}

	if err := service.accountRepository.UpdatePermissions(context, targetUserID, mask); err != nil {
		return nil, fmt.Errorf("account_service_update_permissions_failed: %w", err)
	}

	target.Permissions = mask

	service.logger.Info("user_permissions_updated",
		slog.Int64("acting_user_id", actingUserID),
		slog.Int64("target_user_id", targetUserID),
		slog.Int64("permissions", int64(mask)),
	)

	return target, nil
}

// # Session Security

/*
ListSessions provides a list of all active device sessions for the user.

Parameters:
  - context: context.Context
  - userID: int64
  - currentTokenHash: string (Optional identifying hash of the current session)

Returns:
  - []SessionInfo: List of active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userID int64, currentTokenHash string) ([]SessionInfo, error) {

	// Ensure the user is authenticated
	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)

	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	return sessions, nil
}

/*
RevokeSession terminates a specific user session by its ID.

Parameters:
  - context: context.Context
  - userID: int64
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeSession(context context.Context, userID int64, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("user_session_revoked",
		slog.Int64("user_id", userID),
		slog.String("session_id", sessionID),
	)

	return nil
}

/*
RevokeOtherSessions terminates all sessions except for the current active one.

Parameters:
  - context: context.Context
  - userID: int64
  - currentSessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeOtherSessions(context context.Context, userID int64, currentSessionID string) error {
	if err := service.sessionRepository.RevokeOthers(context, userID, currentSessionID); err != nil {
		return fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}

	service.logger.Info("user_other_sessions_revoked", slog.Int64("user_id", userID))

	return nil
}
