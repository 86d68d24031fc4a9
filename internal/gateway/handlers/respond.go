package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finnh/taskdeck/internal/gateway/dto"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/pkg/bus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// transportError answers a failed bus round trip. An unavailable
// directory is 503, never 404: the request was not judged.
func transportError(w http.ResponseWriter, err error) {
	if errors.Is(err, bus.ErrUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporarily unavailable"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
}

// statusForCode maps the wire contract's machine codes to HTTP
// statuses.
func statusForCode(code string) int {
	switch code {
	case rpc.CodeProjectNotFound, rpc.CodeUserNotFound, rpc.CodeMemberNotFound,
		rpc.CodeInvitationNotFound, rpc.CodeTokenNotFound:
		return http.StatusNotFound
	case rpc.CodeForbidden, rpc.CodeUserInactive:
		return http.StatusForbidden
	case rpc.CodeSlugConflict, rpc.CodeUserExists,
		rpc.CodeMemberAlreadyExists, rpc.CodeInvitationAlreadyExists:
		return http.StatusConflict
	case rpc.CodeTokenExpired, rpc.CodeTokenInvalid:
		return http.StatusUnauthorized
	case rpc.CodeBadRequest, rpc.CodeInvitationExpired, rpc.CodeInvalidInvitationStatus:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// replyError answers a business rejection carried in a reply code.
func replyError(w http.ResponseWriter, code, message string) {
	if message == "" {
		message = "Request failed"
	}
	writeJSON(w, statusForCode(code), dto.ErrorResponse{Error: message, Code: code})
}

func validationFailed(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: details})
}

func invalidBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
}
