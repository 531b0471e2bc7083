package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Question    string          `json:"question"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	Reward      decimal.Decimal `json:"reward"`
	EndsAt      time.Time       `json:"ends_at"`
	Options     []string        `json:"options"`
}

type updatePollRequest struct {
	Question    *string          `json:"question"`
	Description *string          `json:"description"`
	Budget      *decimal.Decimal `json:"budget"`
	Reward      *decimal.Decimal `json:"reward"`
	IsActive    *bool            `json:"is_active"`
	EndsAt      *time.Time       `json:"ends_at"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Creates a poll with its options in a single transaction. Requires the admin or vendor role.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      201  {object}  domain.Poll
// @Failure      400
// @Failure      403
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	callerID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	poll, err := h.service.Create(r.Context(), callerID, ports.CreatePollInput{
		Question:    req.Question,
		Description: req.Description,
		Budget:      req.Budget,
		Reward:      req.Reward,
		EndsAt:      req.EndsAt,
		Options:     req.Options,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(poll); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// ListPolls godoc
// @Summary      Lists votable polls
// @Description  Returns polls currently accepting votes, newest first, flagged with whether the caller already voted.
// @Tags         polls
// @Produce      json
// @Router       /api/polls [get]
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	callerID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	polls, err := h.service.ListVotable(r.Context(), callerID, listInput(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(polls); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PollHandler) ListCreated(w http.ResponseWriter, r *http.Request) {
	callerID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	polls, err := h.service.ListCreated(r.Context(), callerID, listInput(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(polls); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPollID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, domain.ErrPollNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(poll); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	callerID, callerRole, ok := callerIdentity(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req updatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	poll, err := h.service.Update(r.Context(), callerID, callerRole, chi.URLParam(r, "id"), ports.UpdatePollInput{
		Question:    req.Question,
		Description: req.Description,
		Budget:      req.Budget,
		Reward:      req.Reward,
		IsActive:    req.IsActive,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		writePollError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(poll); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	callerID, callerRole, ok := callerIdentity(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	if err := h.service.Delete(r.Context(), callerID, callerRole, chi.URLParam(r, "id")); err != nil {
		writePollError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writePollError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPollID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPollNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func callerIdentity(r *http.Request) (uuid.UUID, domain.Role, bool) {
	id, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := r.Context().Value(UserRoleKey).(domain.Role)
	if !ok {
		return uuid.Nil, "", false
	}
	return id, role, true
}

func listInput(r *http.Request) ports.ListPollsInput {
	var input ports.ListPollsInput
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		input.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		input.Offset = v
	}
	return input
}
