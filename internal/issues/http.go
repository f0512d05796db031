// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package issues provides the HTTP delivery layer for the media issue tracker.

# Security

All endpoints require an authenticated session. Capability checks run in the
service layer against the reporter's stored grants, so a stale JWT can never
widen access.
*/
package issues

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cinara/internal/media"
	requestutil "github.com/taibuivan/cinara/internal/platform/request"
	"github.com/taibuivan/cinara/internal/platform/respond"
	"github.com/taibuivan/cinara/internal/platform/validate"
	"github.com/taibuivan/cinara/pkg/convert"
	"github.com/taibuivan/cinara/pkg/pagination"
)

// Handler implements the HTTP layer for issue tracking.
type Handler struct {
	issueService *Service
}

// NewHandler constructs a new issue [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{issueService: service}
}

// Routes returns a [chi.Router] configured with the issue domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.create)
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Post("/{id}/status", handler.updateStatus)
	router.Delete("/{id}", handler.delete)
	router.Post("/{id}/comments", handler.addComment)
	router.Get("/comments/{id}", handler.getComment)
	router.Delete("/comments/{id}", handler.deleteComment)

	return router
}

// # Request Payloads

type createIssueRequest struct {
	MediaType      string `json:"media_type"`
	TmdbID         int64  `json:"tmdb_id"`
	IssueType      string `json:"issue_type"`
	Message        string `json:"message"`
	ProblemSeason  int    `json:"problem_season"`
	ProblemEpisode int    `json:"problem_episode"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addCommentRequest struct {
	Message        string `json:"message"`
	AttachmentPath string `json:"attachment_path"`
}

/*
Create reports a new issue against a media title.

POST /api/v1/issues

Request:
  - Body: createIssueRequest

Response:
  - 201: Issue: The persisted issue with its first comment
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 403: ErrForbidden: CreateIssues capability required
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createIssueRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("media_type", input.MediaType).
		Required("issue_type", input.IssueType).
		Required("message", input.Message)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issue, err := handler.issueService.Create(request.Context(), actorID, CreateInput{
		MediaType:      media.MediaType(input.MediaType),
		TmdbID:         input.TmdbID,
		IssueType:      IssueType(input.IssueType),
		Message:        input.Message,
		ProblemSeason:  input.ProblemSeason,
		ProblemEpisode: input.ProblemEpisode,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, issue)
}

/*
List returns a filtered page of issues.

GET /api/v1/issues

Query:
  - status: string (open|resolved)
  - media_id: int64
  - page, limit: pagination

Response:
  - 200: []Issue + pagination metadata
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	filter := Filter{
		Status:  IssueStatus(request.URL.Query().Get("status")),
		MediaID: int64(convert.ToInt(request.URL.Query().Get("media_id"))),
	}

	items, total, err := handler.issueService.List(request.Context(), actorID, filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, items, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get retrieves a single issue with its comment thread.

GET /api/v1/issues/{id}

Response:
  - 200: Issue: Hydrated entity
  - 403: ErrForbidden: Not the reporter and no ViewIssues capability
  - 404: ErrNotFound: No such issue
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issue, err := handler.issueService.Get(request.Context(), actorID, issueID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, issue)
}

/*
UpdateStatus transitions an issue between open and resolved.

POST /api/v1/issues/{id}/status

Request:
  - Body: updateStatusRequest (Status)

Response:
  - 200: Issue: The issue with its current status
  - 400: ErrInvalidJSON: Unknown status
  - 403: ErrForbidden: Not the reporter and no ManageIssues capability
*/
func (handler *Handler) updateStatus(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateStatusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	issue, err := handler.issueService.UpdateStatus(request.Context(), actorID, issueID, IssueStatus(input.Status))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, issue)
}

/*
Delete permanently removes an issue and its comments.

DELETE /api/v1/issues/{id}

Response:
  - 204: No Content: Issue removed
  - 403: ErrForbidden: Not the reporter and no ManageIssues capability
  - 404: ErrNotFound: No such issue
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.issueService.Delete(request.Context(), actorID, issueID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
AddComment appends a message to an issue's conversation thread.

POST /api/v1/issues/{id}/comments

Request:
  - Body: addCommentRequest (Message, optional AttachmentPath)

Response:
  - 201: Comment: The persisted comment
  - 400: ErrInvalidJSON: Missing message
  - 403: ErrForbidden: Not the reporter and no ManageIssues capability
*/
func (handler *Handler) addComment(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issueID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input addCommentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Message == "" {
		respond.Error(writer, request, validate.RequiredError("message", "is required"))
		return
	}

	comment, err := handler.issueService.AddComment(request.Context(), actorID, issueID, input.Message, input.AttachmentPath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, comment)
}

/*
GetComment retrieves a single comment from a thread.

GET /api/v1/issues/comments/{id}

Response:
  - 200: Comment: Hydrated entity
  - 403: ErrForbidden: Not a participant and no ViewIssues capability
  - 404: ErrNotFound: No such comment
*/
func (handler *Handler) getComment(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	commentID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.issueService.GetComment(request.Context(), actorID, commentID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comment)
}

/*
DeleteComment removes a follow-up comment.

DELETE /api/v1/issues/comments/{id}

Response:
  - 204: No Content: Comment removed
  - 403: ErrForbidden: Not the author and no ManageIssues capability
  - 409: ErrConflict: The comment is the issue description
*/
func (handler *Handler) deleteComment(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	commentID, err := requestutil.IntID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.issueService.DeleteComment(request.Context(), actorID, commentID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
