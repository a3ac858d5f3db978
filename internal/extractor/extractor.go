package extractor

import (
	"fmt"
	"os"

	"github.com/reslib/paper-metadata-api/internal/utils"
)

// ExtractionError means the source file is unreadable or not a parseable PDF.
// These failures are structural, never retried.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor turns a PDF on disk into normalized plain text.
type Extractor struct {
	keepArtifacts bool
	logger        *utils.Logger
}

func NewExtractor(keepArtifacts bool, logger *utils.Logger) *Extractor {
	return &Extractor{
		keepArtifacts: keepArtifacts,
		logger:        logger,
	}
}

// Extract reads the file at path, extracts its text, and normalizes it.
// When artifact keeping is enabled, the text is also written to <path>.txt
// as a debugging aid; nothing downstream depends on that file.
func (e *Extractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	text, err := ExtractPDF(data)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	text = NormalizeText(text)
	if text == "" {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("no text left after normalization")}
	}

	if e.keepArtifacts {
		artifact := path + ".txt"
		if err := os.WriteFile(artifact, []byte(text), 0644); err != nil {
			e.logger.Warn("Failed to write text artifact", "path", artifact, "error", err)
		}
	}

	return text, nil
}
