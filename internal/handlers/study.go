package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/services"
)

type StudyHandler struct {
	study *services.StudyService
}

func NewStudyHandler(study *services.StudyService) *StudyHandler {
	return &StudyHandler{study: study}
}

// Due returns the learner's cards due right now, optionally scoped to one
// uploaded file via ?file_id.
func (h *StudyHandler) Due(w http.ResponseWriter, r *http.Request) {
	fileID, ok := parseOptionalFileID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be between 1 and 200", r))
			return
		}
		limit = n
	}

	cards, err := h.study.DueNow(r.Context(), middleware.GetUserID(r.Context()), fileID, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": cards,
		"count": len(cards),
	})
}

// Progress returns the learner's due counters. ?tz names the IANA zone used
// for the due_today boundary; it defaults to UTC.
func (h *StudyHandler) Progress(w http.ResponseWriter, r *http.Request) {
	fileID, ok := parseOptionalFileID(w, r)
	if !ok {
		return
	}

	progress, err := h.study.Progress(r.Context(), middleware.GetUserID(r.Context()), fileID, r.URL.Query().Get("tz"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func parseOptionalFileID(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("file_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid file_id", r))
		return nil, false
	}
	return &id, true
}
