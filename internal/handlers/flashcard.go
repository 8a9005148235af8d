package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/NotescapeAi/notescape-backend/internal/database"
	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
)

const (
	defaultGenCards = 10
	maxGenCards     = 50
)

type FlashcardHandler struct {
	flashRepo *repository.FlashcardRepo
	classRepo *repository.ClassRepo
	noteRepo  *repository.NoteRepo
	jobRepo   *repository.JobRepo
	queue     *redis.Client
}

func NewFlashcardHandler(flashRepo *repository.FlashcardRepo, classRepo *repository.ClassRepo, noteRepo *repository.NoteRepo, jobRepo *repository.JobRepo, queue *redis.Client) *FlashcardHandler {
	return &FlashcardHandler{
		flashRepo: flashRepo,
		classRepo: classRepo,
		noteRepo:  noteRepo,
		jobRepo:   jobRepo,
		queue:     queue,
	}
}

// Create adds a manually authored card to a class the user owns. Manual
// cards have no source chunk, so they never match a file scope.
func (h *FlashcardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFlashcardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	req.Question = strings.TrimSpace(req.Question)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Question == "" {
		fields["question"] = "required"
	}
	if req.Answer == "" {
		fields["answer"] = "required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	class, err := h.classRepo.GetByID(r.Context(), req.ClassID)
	if err != nil {
		lookupError(w, r, err, "Class not found")
		return
	}
	if class.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	card := &models.Flashcard{
		ClassID:    req.ClassID,
		Question:   req.Question,
		Answer:     req.Answer,
		Hint:       req.Hint,
		Difficulty: normalizeDifficulty(req.Difficulty),
		Tags:       req.Tags,
	}
	if err := h.flashRepo.Create(r.Context(), card); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create card", r))
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (h *FlashcardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *FlashcardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	if err := h.flashRepo.Delete(r.Context(), card.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete card", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}

// Generate enqueues an async card-generation job for an uploaded file and
// returns 202 with the job for the client to poll.
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.GenerateCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.NumCards == 0 {
		req.NumCards = defaultGenCards
	}
	if req.NumCards < 1 || req.NumCards > maxGenCards {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"num_cards": "must be between 1 and 50"}, r))
		return
	}

	file, err := h.noteRepo.GetFile(r.Context(), req.FileID)
	if err != nil {
		lookupError(w, r, err, "File not found")
		return
	}
	if file.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	job := &models.GenerationJob{
		UserID:   userID,
		FileID:   file.ID,
		ClassID:  file.ClassID,
		NumCards: req.NumCards,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	if err := h.queue.LPush(r.Context(), database.CardGenQueue, job.ID.String()).Err(); err != nil {
		log.Printf("generate: enqueue job %s failed: %v", job.ID, err)
		h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// GetJob reports generation job status for polling.
func (h *FlashcardHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		lookupError(w, r, err, "Job not found")
		return
	}
	if job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *FlashcardHandler) ownedCard(w http.ResponseWriter, r *http.Request) (*models.Flashcard, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return nil, false
	}

	card, err := h.flashRepo.GetByIDForUser(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		lookupError(w, r, err, "Card not found")
		return nil, false
	}
	return card, true
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}
