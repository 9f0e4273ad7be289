package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/ports"
)

type VoteHandler struct {
	votes    ports.VoteService
	receipts ports.ReceiptService
}

func NewVoteHandler(votes ports.VoteService, receipts ports.ReceiptService) *VoteHandler {
	return &VoteHandler{votes: votes, receipts: receipts}
}

type castVoteRequest struct {
	PostID      uuid.UUID `json:"post_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := VoterIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing voter context")
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid request body")
		return
	}
	if req.PostID == uuid.Nil || req.CandidateID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "post_id and candidate_id are required")
		return
	}

	receipt, err := h.votes.CastVote(r.Context(), ports.CastVoteInput{
		VoterID:     voterID,
		PostID:      req.PostID,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// VerifyReceipt is public: anyone holding a receipt hash can confirm
// inclusion without learning the voter or the ballot.
func (h *VoteHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "missing receipt hash")
		return
	}

	lookup, err := h.receipts.Verify(r.Context(), hash)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lookup)
}

func (h *VoteHandler) VerifyVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid vote id")
		return
	}

	if err := h.votes.VerifyVote(r.Context(), actorFrom(r), voteID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type invalidateVoteRequest struct {
	Reason string `json:"reason"`
}

func (h *VoteHandler) InvalidateVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid vote id")
		return
	}

	var req invalidateVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid request body")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "reason is required")
		return
	}

	if err := h.votes.InvalidateVote(r.Context(), actorFrom(r), voteID, req.Reason); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func actorFrom(r *http.Request) string {
	if id, ok := VoterIDFrom(r.Context()); ok {
		return id.String()
	}
	return "unknown"
}
