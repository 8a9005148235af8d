package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
	"github.com/NotescapeAi/notescape-backend/internal/services"
)

// maxUploadBytes caps note uploads at 25MB.
const maxUploadBytes = 25 << 20

var allowedUploadExts = map[string]bool{
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".docx": true,
}

type NoteHandler struct {
	noteRepo    *repository.NoteRepo
	classRepo   *repository.ClassRepo
	extract     *services.FileExtractService
	storagePath string
}

func NewNoteHandler(noteRepo *repository.NoteRepo, classRepo *repository.ClassRepo, extract *services.FileExtractService, storagePath string) *NoteHandler {
	return &NoteHandler{
		noteRepo:    noteRepo,
		classRepo:   classRepo,
		extract:     extract,
		storagePath: storagePath,
	}
}

// Upload ingests a notes file: save to disk, extract text, chunk, persist
// file row plus chunks in one transaction.
func (h *NoteHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form or file too large", r))
		return
	}

	classID, err := uuid.Parse(r.FormValue("class_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid class_id", r))
		return
	}

	class, err := h.classRepo.GetByID(r.Context(), classID)
	if err != nil {
		lookupError(w, r, err, "Class not found")
		return
	}
	if class.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "file is required", r))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR",
			fmt.Sprintf("Unsupported file type %q. Allowed: .txt, .md, .pdf, .docx", ext), r))
		return
	}

	savedPath, size, err := h.saveUpload(file, ext)
	if err != nil {
		log.Printf("note upload: save failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	defer os.Remove(savedPath)

	text, err := h.extract.ExtractTextFromPath(savedPath)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EXTRACTION_FAILED", "Could not extract text from file", r))
		return
	}

	chunks := h.extract.ChunkText(text)
	if len(chunks) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EXTRACTION_FAILED", "File contains no usable text", r))
		return
	}

	noteFile := &models.NoteFile{
		ClassID:   classID,
		UserID:    userID,
		Filename:  filepath.Base(header.Filename),
		SizeBytes: size,
	}
	if err := h.noteRepo.CreateFileWithChunks(r.Context(), noteFile, chunks); err != nil {
		log.Printf("note upload: persist failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save file", r))
		return
	}

	writeJSON(w, http.StatusCreated, noteFile)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	f, ok := h.ownedFile(w, r)
	if !ok {
		return
	}

	if err := h.noteRepo.DeleteFile(r.Context(), f.ID, f.UserID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete file", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

func (h *NoteHandler) ownedFile(w http.ResponseWriter, r *http.Request) (*models.NoteFile, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid file ID", r))
		return nil, false
	}

	f, err := h.noteRepo.GetFile(r.Context(), id)
	if err != nil {
		lookupError(w, r, err, "File not found")
		return nil, false
	}
	if f.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return f, true
}

// saveUpload writes the upload under the storage path with a random name so
// the extractor can work from a seekable file on disk.
func (h *NoteHandler) saveUpload(src io.Reader, ext string) (string, int64, error) {
	if err := os.MkdirAll(h.storagePath, 0o755); err != nil {
		return "", 0, err
	}

	path := filepath.Join(h.storagePath, uuid.New().String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	return path, size, nil
}
