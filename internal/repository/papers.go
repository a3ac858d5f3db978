package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/reslib/paper-metadata-api/internal/models"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

// TitleNotFound is stored when the resolver returned an empty title. The
// substitution happens only here, at the point of storage; an empty title is
// a valid extraction result everywhere upstream.
const TitleNotFound = "Title not found"

// PersistenceError means the storage transaction failed and was rolled back.
// No partial rows remain for the paper in question.
type PersistenceError struct {
	PaperID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist metadata for paper %s: %v", e.PaperID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type PaperRepository interface {
	// UpsertExtraction writes a validated extraction result in one
	// transaction: paper upsert, author upserts by unique name, and
	// insert-or-ignore paper_authors links.
	UpsertExtraction(ctx context.Context, paperID, sourcePath string, result *models.ExtractionResult) (*models.PersistedRecord, error)
	GetByID(ctx context.Context, id string) (*models.Paper, error)
}

type paperRepository struct {
	db     *sqlx.DB
	logger *utils.Logger
}

func NewPaperRepository(db *sqlx.DB, logger *utils.Logger) PaperRepository {
	return &paperRepository{db: db, logger: logger}
}

func (r *paperRepository) UpsertExtraction(ctx context.Context, paperID, sourcePath string, result *models.ExtractionResult) (*models.PersistedRecord, error) {
	title := strings.TrimSpace(result.Title)
	if title == "" {
		title = TitleNotFound
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &PersistenceError{PaperID: paperID, Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO papers (uuid, title, original_file_path)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid) DO UPDATE SET
			title = excluded.title,
			original_file_path = excluded.original_file_path
	`, paperID, title, sourcePath)
	if err != nil {
		return nil, &PersistenceError{PaperID: paperID, Err: fmt.Errorf("upsert paper: %w", err)}
	}

	linked := make([]string, 0, len(result.Authors))
	seen := make(map[string]bool, len(result.Authors))
	for _, name := range result.Authors {
		name = strings.TrimSpace(name)
		if name == "" {
			r.logger.Warn("Skipping blank author name", "paper_id", paperID)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		// Uniqueness on authors.name is the only dedup mechanism, also
		// across concurrent runs; the conflict clause re-affirms the row
		// so RETURNING yields the id either way.
		var authorID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO authors (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = excluded.name
			RETURNING id
		`, name).Scan(&authorID)
		if err != nil {
			return nil, &PersistenceError{PaperID: paperID, Err: fmt.Errorf("upsert author %q: %w", name, err)}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO paper_authors (paper_id, author_id)
			VALUES ($1, $2)
			ON CONFLICT (paper_id, author_id) DO NOTHING
		`, paperID, authorID)
		if err != nil {
			return nil, &PersistenceError{PaperID: paperID, Err: fmt.Errorf("link author %q: %w", name, err)}
		}

		linked = append(linked, name)
	}

	if err := tx.Commit(); err != nil {
		return nil, &PersistenceError{PaperID: paperID, Err: fmt.Errorf("commit: %w", err)}
	}

	return &models.PersistedRecord{
		PaperID: paperID,
		Title:   title,
		Authors: linked,
	}, nil
}

func (r *paperRepository) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	var paper models.Paper

	err := r.db.QueryRowContext(ctx, `
		SELECT uuid, title, original_file_path
		FROM papers
		WHERE uuid = $1
	`, id).Scan(&paper.UUID, &paper.Title, &paper.OriginalFilePath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.name
		FROM authors a
		JOIN paper_authors pa ON pa.author_id = a.id
		WHERE pa.paper_id = $1
		ORDER BY a.name
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paper.Authors = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		paper.Authors = append(paper.Authors, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &paper, nil
}
