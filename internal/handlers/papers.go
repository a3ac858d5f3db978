package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/reslib/paper-metadata-api/internal/jobs"
	"github.com/reslib/paper-metadata-api/internal/models"
	"github.com/reslib/paper-metadata-api/internal/services"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

const (
	MaxFileSize = 5 << 20 // 5MB
)

type PaperHandler struct {
	service services.PaperService
	pool    *jobs.Pool
	logger  *utils.Logger
}

func NewPaperHandler(service services.PaperService, pool *jobs.Pool, logger *utils.Logger) *PaperHandler {
	return &PaperHandler{
		service: service,
		pool:    pool,
		logger:  logger,
	}
}

// UploadPaper accepts a multipart PDF, stores it, and enqueues the
// extraction pipeline. Non-PDF input is rejected before anything runs.
func (h *PaperHandler) UploadPaper(w http.ResponseWriter, r *http.Request) {
	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > MaxFileSize {
		h.respondError(w, utils.NewBadRequestError("File size exceeds 5MB limit"))
		return
	}

	// Limit the request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize)

	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") ||
			strings.Contains(err.Error(), "multipart: NextPart: http: request body too large") {
			h.respondError(w, utils.NewBadRequestError("File size exceeds 5MB limit"))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	if contentType != "application/pdf" {
		h.respondError(w, utils.NewBadRequestError("Only PDF files are allowed"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file"))
		return
	}

	if len(data) > MaxFileSize {
		h.respondError(w, utils.NewBadRequestError("File size exceeds 5MB limit"))
		return
	}

	if len(data) == 0 {
		h.respondError(w, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	req := &models.UploadRequest{
		File:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	}

	paperID, filePath, err := h.service.UploadPaper(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	job, err := h.pool.Enqueue(paperID, filePath)
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			h.respondError(w, utils.NewTooManyRequestsError("Processing queue is full, try again later"))
			return
		}
		h.respondError(w, utils.NewInternalError("Failed to schedule processing"))
		return
	}

	h.respondJSON(w, http.StatusAccepted, &models.UploadResponse{
		PaperID:   paperID,
		JobID:     job.ID,
		Filename:  header.Filename,
		FileSize:  int64(len(data)),
		CreatedAt: job.SubmittedAt,
		Message:   fmt.Sprintf("Paper accepted for processing. Poll /api/v1/jobs/%s for status.", job.ID),
	})
}

// JobStatus reports one terminal state per job: succeeded carries the
// persisted record, failed carries a human-readable error summary.
func (h *PaperHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Job ID is required"))
		return
	}

	job, ok := h.pool.Get(id)
	if !ok {
		h.respondError(w, utils.NewNotFoundError("Job not found"))
		return
	}

	h.respondJSON(w, http.StatusOK, jobResponse(job))
}

func (h *PaperHandler) GetPaper(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Paper ID is required"))
		return
	}

	paper, err := h.service.GetPaper(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, paper)
}

func jobResponse(job *jobs.Job) *models.JobStatusResponse {
	resp := &models.JobStatusResponse{
		JobID:       job.ID,
		PaperID:     job.PaperID,
		Status:      string(job.Status),
		SubmittedAt: job.SubmittedAt,
		FinishedAt:  job.FinishedAt,
	}
	switch job.Status {
	case jobs.StatusSucceeded:
		resp.Result = job.Result
	case jobs.StatusFailed:
		resp.Error = job.Error
	}
	return resp
}

// determineContentType determines the content type from filename extension
// with fallback to the provided content type header
func determineContentType(filename, headerContentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" {
		return "application/pdf"
	}
	return headerContentType
}

func (h *PaperHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *PaperHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	switch e := err.(type) {
	case *utils.AppError:
		status = e.StatusCode
		message = e.Message
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
