package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reslib/paper-metadata-api/internal/models"
	"github.com/reslib/paper-metadata-api/internal/repository"
	"github.com/reslib/paper-metadata-api/internal/resolver"
	"github.com/reslib/paper-metadata-api/internal/storage"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

// TextExtractor yields normalized plain text for a document on disk.
// Satisfied by extractor.Extractor.
type TextExtractor interface {
	Extract(path string) (string, error)
}

type PaperService interface {
	// UploadPaper stores the PDF locally and in object storage and returns
	// the assigned paper id plus the local path the pipeline will read.
	UploadPaper(ctx context.Context, req *models.UploadRequest) (paperID, filePath string, err error)
	// ProcessPaper runs one full pipeline: extract, resolve, persist.
	ProcessPaper(ctx context.Context, paperID, filePath string) (*models.PersistedRecord, error)
	GetPaper(ctx context.Context, id string) (*models.Paper, error)
}

type paperService struct {
	repo      repository.PaperRepository
	storage   storage.Storage
	extractor TextExtractor
	resolver  *resolver.Resolver
	uploadDir string
	logger    *utils.Logger
}

func NewService(
	repo repository.PaperRepository,
	store storage.Storage,
	ext TextExtractor,
	res *resolver.Resolver,
	uploadDir string,
	logger *utils.Logger,
) PaperService {
	return &paperService{
		repo:      repo,
		storage:   store,
		extractor: ext,
		resolver:  res,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (s *paperService) UploadPaper(ctx context.Context, req *models.UploadRequest) (string, string, error) {
	paperID := utils.GenerateID()

	// The stored filename carries the paper id; the id stays derivable from
	// the path and collisions are ruled out even for same-named uploads.
	storedName := paperID + "_" + filepath.Base(req.Filename)
	filePath := filepath.Join(s.uploadDir, storedName)

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		s.logger.Error("Failed to create upload directory", "error", err, "dir", s.uploadDir)
		return "", "", utils.NewInternalError("Failed to store document")
	}
	if err := os.WriteFile(filePath, req.File, 0644); err != nil {
		s.logger.Error("Failed to write uploaded file", "error", err, "path", filePath)
		return "", "", utils.NewInternalError("Failed to store document")
	}

	s3Key := fmt.Sprintf("papers/%s/%s", paperID, filepath.Base(req.Filename))
	if err := s.storage.Upload(ctx, s3Key, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to upload to object storage", "error", err, "s3_key", s3Key)
		_ = os.Remove(filePath)
		return "", "", utils.NewInternalError("Failed to store document")
	}

	s.logger.Info("Paper uploaded",
		"paper_id", paperID,
		"filename", req.Filename,
		"file_size", len(req.File),
		"path", filePath)

	return paperID, filePath, nil
}

// ProcessPaper is the unit of work the job pool runs. Steps are strictly
// sequential; any error aborts the run and becomes the job's failure.
func (s *paperService) ProcessPaper(ctx context.Context, paperID, filePath string) (*models.PersistedRecord, error) {
	text, err := s.extractor.Extract(filePath)
	if err != nil {
		s.logger.Error("Text extraction failed", "paper_id", paperID, "error", err)
		return nil, err
	}
	s.logger.Info("Text extracted", "paper_id", paperID, "text_length", len(text))

	result, err := s.resolver.Resolve(ctx, text)
	if err != nil {
		s.logger.Error("Metadata resolution failed", "paper_id", paperID, "error", err)
		return nil, err
	}

	record, err := s.repo.UpsertExtraction(ctx, paperID, filePath, result)
	if err != nil {
		s.logger.Error("Metadata persistence failed", "paper_id", paperID, "error", err)
		return nil, err
	}

	s.logger.Info("Paper processed",
		"paper_id", paperID,
		"title", record.Title,
		"authors", len(record.Authors))

	return record, nil
}

func (s *paperService) GetPaper(ctx context.Context, id string) (*models.Paper, error) {
	if strings.TrimSpace(id) == "" {
		return nil, utils.NewBadRequestError("Paper ID is required")
	}

	paper, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get paper", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve paper")
	}
	if paper == nil {
		return nil, utils.NewNotFoundError("Paper not found")
	}

	return paper, nil
}
