package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
)

type ClassHandler struct {
	classRepo *repository.ClassRepo
	flashRepo *repository.FlashcardRepo
	noteRepo  *repository.NoteRepo
}

func NewClassHandler(classRepo *repository.ClassRepo, flashRepo *repository.FlashcardRepo, noteRepo *repository.NoteRepo) *ClassHandler {
	return &ClassHandler{classRepo: classRepo, flashRepo: flashRepo, noteRepo: noteRepo}
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "title is required", r))
		return
	}

	class := &models.Class{
		UserID: middleware.GetUserID(r.Context()),
		Title:  req.Title,
	}
	if err := h.classRepo.Create(r.Context(), class); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create class", r))
		return
	}

	writeJSON(w, http.StatusCreated, class)
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.classRepo.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch classes", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"classes": classes})
}

func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	class, ok := h.ownedClass(w, r)
	if !ok {
		return
	}

	cards, err := h.flashRepo.ListByClass(r.Context(), class.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	files, err := h.noteRepo.ListFilesByClass(r.Context(), class.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch files", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class": class,
		"cards": cards,
		"files": files,
	})
}

func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	class, ok := h.ownedClass(w, r)
	if !ok {
		return
	}

	if err := h.classRepo.Delete(r.Context(), class.ID, class.UserID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete class", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Class deleted"})
}

// ownedClass loads the {id} class and enforces ownership, writing the
// error response itself when the check fails.
func (h *ClassHandler) ownedClass(w http.ResponseWriter, r *http.Request) (*models.Class, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid class ID", r))
		return nil, false
	}

	class, err := h.classRepo.GetByID(r.Context(), id)
	if err != nil {
		lookupError(w, r, err, "Class not found")
		return nil, false
	}

	if class.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return class, true
}
