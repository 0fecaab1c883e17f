package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/namastexlabs/roombook/internal/booking"
	"github.com/namastexlabs/roombook/internal/gateway"
	"github.com/namastexlabs/roombook/internal/rooms"
)

// ErrorResponse is the failure envelope: a short message plus diagnostic
// detail passed through from the failing layer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`

	// Results carries per-write outcomes when a booking partially failed.
	Results []booking.Result `json:"results,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
}

func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// writeError maps the error taxonomy to HTTP statuses. Nothing is retried;
// every failure is surfaced for a manual re-attempt.
func (s *Server) writeError(w http.ResponseWriter, err error, results []booking.Result) {
	status, resp := classify(err)
	resp.Results = results
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, booking.ErrSlotConflict):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	}

	var permErr *rooms.PermissionError
	if errors.As(err, &permErr) {
		return http.StatusForbidden, ErrorResponse{Error: permErr.Error(), Hint: permErr.Hint()}
	}

	var gwPerm *gateway.PermissionDeniedError
	if errors.As(err, &gwPerm) {
		return http.StatusForbidden, ErrorResponse{Error: gwPerm.Error(), Hint: gwPerm.Hint}
	}

	var notFound *gateway.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, ErrorResponse{Error: notFound.Error()}
	}

	var invalid *gateway.InvalidRequestError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, ErrorResponse{Error: invalid.Error(), Details: detailOf(invalid.Cause)}
	}

	var roomWrite *booking.RoomWriteError
	if errors.As(err, &roomWrite) {
		return http.StatusBadGateway, ErrorResponse{Error: "room calendar write failed", Details: detailOf(roomWrite.Cause)}
	}

	var upstream *gateway.UpstreamError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway, ErrorResponse{Error: "calendar backend error", Details: detailOf(upstream.Cause)}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Details: err.Error()}
}

func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
