package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	OptionID uuid.UUID `json:"option_id"`
}

// VoteOnPoll godoc
// @Summary      Casts a vote
// @Description  Records the caller's vote, increments the option tally and credits the poll's reward to the caller's balance. One vote per user per poll.
// @Tags         votes
// @Accept       json
// @Success      201
// @Failure      400  "invalid option"
// @Failure      404  "poll closed or missing"
// @Failure      409  "already voted"
// @Router       /api/polls/{id}/votes [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OptionID == uuid.Nil {
		http.Error(w, "option_id is required", http.StatusBadRequest)
		return
	}

	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	err = h.service.CastVote(r.Context(), ports.CastVoteInput{
		UserID:   userID,
		PollID:   pollID,
		OptionID: req.OptionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotVotable):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidOption):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrAlreadyVoted):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, domain.ErrTransactionFailed.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// MyVotes returns the caller's vote history, newest first.
func (h *VoteHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	votes, err := h.service.ListMyVotes(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(votes); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
