package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
	"github.com/NotescapeAi/notescape-backend/internal/services"
)

const defaultHistoryLimit = 100

type ReviewHandler struct {
	reviews    *services.ReviewService
	reviewRepo *repository.ReviewRepo
	flashRepo  *repository.FlashcardRepo
}

func NewReviewHandler(reviews *services.ReviewService, reviewRepo *repository.ReviewRepo, flashRepo *repository.FlashcardRepo) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, reviewRepo: reviewRepo, flashRepo: flashRepo}
}

// Submit applies one confidence-rated review to the card. The client sends
// an idempotency key so a retried request is not scored twice.
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	var req models.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	state, err := h.reviews.SubmitReview(r.Context(), cardID, middleware.GetUserID(r.Context()), req.Confidence, req.IdempotencyKey)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Preview shows what each confidence rating would do to the card's schedule
// without recording anything.
func (h *ReviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	outcomes, err := h.reviews.Preview(r.Context(), cardID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"outcomes": outcomes})
}

// History returns the card's review log for the learner, newest first.
func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	learnerID := middleware.GetUserID(r.Context())
	if _, err := h.flashRepo.GetByIDForUser(r.Context(), cardID, learnerID); err != nil {
		lookupError(w, r, err, "Card not found")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be between 1 and 500", r))
			return
		}
		limit = n
	}

	logs, err := h.reviewRepo.ListLogs(r.Context(), cardID, learnerID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch history", r))
		return
	}
	if logs == nil {
		logs = []models.ReviewLog{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": logs})
}
