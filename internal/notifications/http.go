// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/middleware"
	requestutil "github.com/taibuivan/cinara/internal/platform/request"
	"github.com/taibuivan/cinara/internal/platform/respond"
)

// Handler exposes operator endpoints for the notification subsystem.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a notification [Handler].
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Routes returns a [chi.Router] with the notification admin endpoints.
// All routes require the admin capability.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(router chi.Router) {
		router.Use(middleware.RequirePermission(permissions.PermissionAdmin))
		router.Post("/test", handler.sendTest)
	})

	return router
}

/*
SendTest dispatches a canned payload through every configured sender so an
operator can verify channel wiring without raising a real issue.

POST /api/v1/notifications/test

Response:
  - 204: The payload was handed to the dispatcher
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Admin capability required
*/
func (handler *Handler) sendTest(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.RequiredUserID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.manager.Dispatch(request.Context(), Payload{
		Kind:         KindTestNotification,
		Event:        "Test Notification",
		Subject:      "Cinara",
		Message:      "Check check. Is this channel coming through?",
		NotifyAdmin:  true,
		NotifySystem: true,
	})

	respond.NoContent(writer)
}
