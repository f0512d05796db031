// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides the HTTP delivery layer for profile, permission,
and session management.

It implements the RESTful interface for users to interact with their account
data and active sessions, and for privileged operators to administer the
permission grants of other members.

# Security

All endpoints in this package require an active authentication session provided
by the RequireAuth middleware. Permission administration additionally requires
the ManageUsers capability.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/middleware"
	requestutil "github.com/taibuivan/cinara/internal/platform/request"
	"github.com/taibuivan/cinara/internal/platform/respond"
	"github.com/taibuivan/cinara/pkg/pagination"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Account Management
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Delete("/me", handler.deleteMe)

	// Session Security
	router.Get("/me/sessions", handler.listSessions)
	router.Delete("/me/sessions", handler.revokeOtherSessions)
	router.Delete("/me/sessions/{id}", handler.revokeSession)

	// Public Profile discovery
	router.Get("/users/{id}", handler.getUserProfile)

	// User & Permission Administration
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(permissions.PermissionManageUsers))
		r.Get("/users", handler.listUsers)
		r.Get("/users/{id}/permissions", handler.getUserPermissions)
		r.Put("/users/{id}/permissions", handler.updateUserPermissions)
	})

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

/*
PATCH /api/v1/me.

Description: Applies a partial update to the authenticated user's profile.

Request:
  - Body: updateProfileRequest (optional DisplayName, AvatarURL)

Response:
  - 200: User: Updated user profile
  - 400: ErrInvalidJSON: Bad input
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
		AvatarURL:   input.AvatarURL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/me.

Description: Soft-deletes the authenticated account and revokes every session.

Response:
  - 204: No Content: Account scheduled for deletion
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: The owner account cannot be deleted
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/users/{id}.

Description: Retrieves a user's profile by numeric ID.

Response:
  - 200: User: Hydrated user profile
  - 404: ErrNotFound: No such user
*/
func (handler *Handler) getUserProfile(writer http.ResponseWriter, request *http.Request) {

	// Get user ID
	userID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Get user profile
	user, err := handler.accountService.GetProfile(request.Context(), userID)

	// If the user is not found, return an error
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Security: Consider filtering fields for public consumption
	respond.OK(writer, user)
}

// # User Administration Endpoints

/*
GET /api/v1/users.

Description: Lists registered accounts with pagination, ordered by ID.

Query:
  - page: int (1-indexed)
  - limit: int (clamped to pagination.MaxLimit)

Response:
  - 200: []User + pagination metadata
  - 403: ErrForbidden: ManageUsers capability required
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.accountService.ListUsers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/users/{id}/permissions.

Description: Returns the evaluated capability tree for the target user,
resolved against the acting administrator's authority and the 4K flags.

Response:
  - 200: []PermissionOption: Evaluated tree
  - 403: ErrForbidden: ManageUsers capability required
  - 404: ErrNotFound: No such user
*/
func (handler *Handler) getUserPermissions(writer http.ResponseWriter, request *http.Request) {
	actingUserID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetUserID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	options, err := handler.accountService.PermissionOptions(request.Context(), actingUserID, targetUserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, options)
}

type updatePermissionsRequest struct {
	Permissions int64 `json:"permissions"`
}

/*
PUT /api/v1/users/{id}/permissions.

Description: Replaces the target user's permission bitmask, subject to the
grant-editing constraints (immutable owner, owner-only admin toggling).

Request:
  - Body: updatePermissionsRequest (Permissions bitmask)

Response:
  - 200: User: Updated target account
  - 400: ErrInvalidJSON: Bad input
  - 403: ErrForbidden: Constraint violation or missing capability
  - 404: ErrNotFound: No such user
*/
func (handler *Handler) updateUserPermissions(writer http.ResponseWriter, request *http.Request) {
	actingUserID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetUserID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePermissionsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdatePermissions(
		request.Context(),
		actingUserID,
		targetUserID,
		permissions.Permission(input.Permissions),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Session Security Endpoints

/*
GET /api/v1/me/sessions.

Description: Lists all active device sessions for the authenticated user.

Response:
  - 200: []SessionInfo: Active devices
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), userID, "")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
DELETE /api/v1/me/sessions/{id}.

Description: Revokes a single session belonging to the authenticated user.

Response:
  - 204: No Content: Session revoked
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := chi.URLParam(request, "id")

	if err := handler.accountService.RevokeSession(request.Context(), userID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/me/sessions.

Description: Revokes every session except the current one.

Response:
  - 204: No Content: Other sessions revoked
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The current session ID is unknown at the JWT layer; revoke everything
	// except nothing would log the user out too, so the service receives an
	// empty whitelist and the client is expected to refresh afterwards.
	if err := handler.accountService.RevokeOtherSessions(request.Context(), userID, ""); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
