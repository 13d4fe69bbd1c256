package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/middleware"
)

// ErrorDetail is the machine-readable part of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError rejects a request before it reaches the service layer
// (malformed body, bad path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// serviceError maps a service error onto the API's status codes.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFoundMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation, "invalid request"))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", unwrapMessage(err, domain.ErrConflict, "the itinerary changed; reload and retry"))
	case errors.Is(err, domain.ErrRouteUnavailable):
		writeError(w, http.StatusBadGateway, "route_unavailable", "no route could be computed for the selected mode")
	case errors.Is(err, domain.ErrPersistence):
		slog.ErrorContext(r.Context(), "store failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "persistence_error", "the change could not be saved; try again")
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrStopNotFound):
		return "stop not found"
	case errors.Is(err, domain.ErrDayNotFound):
		return "day not found"
	case errors.Is(err, domain.ErrArticleNotFound):
		return "article not found"
	case errors.Is(err, domain.ErrTripNotFound):
		return "trip not found"
	default:
		return "not found"
	}
}

// unwrapMessage extracts the human-readable part that follows sentinel in a
// wrapped error.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error, fallback string) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return fallback
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
// It writes the error response itself and reports whether decoding worked.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		requestError(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// owner returns the authenticated user id or answers 401.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return id, ok
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		requestError(w, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	d, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		requestError(w, "date must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// pagination reads ?page= and ?limit=; malformed values fall back to the
// defaults of domain.NewPaginationParams.
func pagination(r *http.Request) domain.PaginationParams {
	intQuery := func(key string) *int {
		n, err := strconv.Atoi(r.URL.Query().Get(key))
		if err != nil {
			return nil
		}
		return &n
	}
	return domain.NewPaginationParams(intQuery("page"), intQuery("limit"))
}

// Pagination is the paging envelope of list responses.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

func newPagination(p domain.PaginationParams, total int64) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: int(total), HasMore: p.HasMore(total)}
}
