package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type BackupHandler struct {
	backups       ports.BackupService
	defaultPolicy domain.RetentionPolicy
}

func NewBackupHandler(backups ports.BackupService, defaultPolicy domain.RetentionPolicy) *BackupHandler {
	return &BackupHandler{backups: backups, defaultPolicy: defaultPolicy}
}

func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backups.CreateBackup(r.Context(), actorFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.backups.ListBackups(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid backup id")
		return
	}

	if err := h.backups.RestoreBackup(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

type cleanupRequest struct {
	MaxCount   int `json:"max_count"`
	MaxAgeDays int `json:"max_age_days"`
}

func (h *BackupHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	policy := h.defaultPolicy
	var req cleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		if req.MaxCount > 0 {
			policy.MaxCount = req.MaxCount
		}
		if req.MaxAgeDays > 0 {
			policy.MaxAge = time.Duration(req.MaxAgeDays) * 24 * time.Hour
		}
	}

	deleted, err := h.backups.Cleanup(r.Context(), actorFrom(r), policy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
