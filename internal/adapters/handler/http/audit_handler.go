package http

import (
	"net/http"
	"strconv"

	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type AuditHandler struct {
	store ports.AuditRepository
}

func NewAuditHandler(store ports.AuditRepository) *AuditHandler {
	return &AuditHandler{store: store}
}

func (h *AuditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	entries, err := h.store.List(r.Context(), domain.AuditFilter{
		Actor:      query.Get("actor"),
		Action:     query.Get("action"),
		TargetType: query.Get("target_type"),
		Limit:      limit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
