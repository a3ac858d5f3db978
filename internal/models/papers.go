package models

import (
	"time"
)

// Paper is a stored row in the papers table plus its linked author names.
type Paper struct {
	UUID             string   `json:"uuid" db:"uuid"`
	Title            string   `json:"title" db:"title"`
	OriginalFilePath string   `json:"original_file_path" db:"original_file_path"`
	Authors          []string `json:"authors"`
}

// Author is a stored row in the authors table.
type Author struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ExtractionResult is the validated output of the metadata resolver.
// It is transient: the persistence writer turns it into rows.
// Authors may legitimately be empty, and Title may be empty (unknown title);
// the storage layer substitutes a sentinel at write time.
type ExtractionResult struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
}

// PersistedRecord is the final state returned by the persistence writer:
// the paper id, the stored title, and the author names actually linked.
type PersistedRecord struct {
	PaperID string   `json:"paper_id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
}

type UploadRequest struct {
	File        []byte
	Filename    string
	ContentType string
}

type UploadResponse struct {
	PaperID   string    `json:"paper_id"`
	JobID     string    `json:"job_id"`
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

type JobStatusResponse struct {
	JobID       string           `json:"job_id"`
	PaperID     string           `json:"paper_id"`
	Status      string           `json:"status"`
	Result      *PersistedRecord `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
}
