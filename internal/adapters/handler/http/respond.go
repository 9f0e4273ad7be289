package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/schoolvote/election/internal/core/domain"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind string, message string) {
	writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}

// writeDomainError maps domain sentinels to stable HTTP error kinds.
// Storage-level details never leak: anything unrecognized is a 500 with
// a generic body.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "DuplicateVote", err.Error())
	case errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrCandidateNotFound),
		errors.Is(err, domain.ErrVoteNotFound),
		errors.Is(err, domain.ErrReceiptNotFound),
		errors.Is(err, domain.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, domain.ErrInvalidCandidate),
		errors.Is(err, domain.ErrCandidateInactive):
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
	case errors.Is(err, domain.ErrPostClosed),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrVoterNotFound):
		writeError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrChecksumMismatch),
		errors.Is(err, domain.ErrBackupIncomplete):
		writeError(w, http.StatusConflict, "IntegrityFailure", err.Error())
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal", domain.ErrInternal.Error())
	}
}
