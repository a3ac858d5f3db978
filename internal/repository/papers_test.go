package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslib/paper-metadata-api/internal/db"
	"github.com/reslib/paper-metadata-api/internal/models"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

func newTestRepo(t *testing.T) (PaperRepository, *sqlx.DB) {
	t.Helper()

	conn, err := db.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(conn))

	return NewPaperRepository(conn, utils.NewLogger("error")), conn
}

func TestUpsertExtractionPersistsPaperAndAuthors(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	record, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/paper-1_a.pdf", &models.ExtractionResult{
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "paper-1", record.PaperID)
	assert.Equal(t, "Attention Is All You Need", record.Title)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, record.Authors)

	paper, err := repo.GetByID(ctx, "paper-1")
	require.NoError(t, err)
	require.NotNil(t, paper)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, "/uploads/paper-1_a.pdf", paper.OriginalFilePath)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, paper.Authors)
}

func TestUpsertExtractionIsIdempotent(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	result := &models.ExtractionResult{
		Title:   "A Study of Ducks",
		Authors: []string{"Jo March", "Amy March"},
	}
	_, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/x.pdf", result)
	require.NoError(t, err)
	_, err = repo.UpsertExtraction(ctx, "paper-1", "/uploads/x.pdf", result)
	require.NoError(t, err)

	var papers, authors, links int
	require.NoError(t, conn.Get(&papers, `SELECT COUNT(*) FROM papers`))
	require.NoError(t, conn.Get(&authors, `SELECT COUNT(*) FROM authors`))
	require.NoError(t, conn.Get(&links, `SELECT COUNT(*) FROM paper_authors`))
	assert.Equal(t, 1, papers)
	assert.Equal(t, 2, authors)
	assert.Equal(t, 2, links)
}

func TestUpsertExtractionUpdatesTitleInPlace(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/x.pdf", &models.ExtractionResult{
		Title: "Old Title", Authors: []string{},
	})
	require.NoError(t, err)

	_, err = repo.UpsertExtraction(ctx, "paper-1", "/uploads/x.pdf", &models.ExtractionResult{
		Title: "New Title", Authors: []string{},
	})
	require.NoError(t, err)

	paper, err := repo.GetByID(ctx, "paper-1")
	require.NoError(t, err)
	require.NotNil(t, paper)
	assert.Equal(t, "New Title", paper.Title)
}

func TestUpsertExtractionSharesAuthorsAcrossPapers(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/a.pdf", &models.ExtractionResult{
		Title: "First", Authors: []string{"Shared Author", "Only On First"},
	})
	require.NoError(t, err)
	_, err = repo.UpsertExtraction(ctx, "paper-2", "/uploads/b.pdf", &models.ExtractionResult{
		Title: "Second", Authors: []string{"Shared Author"},
	})
	require.NoError(t, err)

	var authors int
	require.NoError(t, conn.Get(&authors, `SELECT COUNT(*) FROM authors`))
	assert.Equal(t, 2, authors)

	second, err := repo.GetByID(ctx, "paper-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shared Author"}, second.Authors)
}

func TestUpsertExtractionSkipsBlankAndDuplicateAuthors(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	record, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/a.pdf", &models.ExtractionResult{
		Title:   "Messy Authors",
		Authors: []string{"  Jane Doe ", "", "   ", "Jane Doe"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe"}, record.Authors)

	var authors, links int
	require.NoError(t, conn.Get(&authors, `SELECT COUNT(*) FROM authors`))
	require.NoError(t, conn.Get(&links, `SELECT COUNT(*) FROM paper_authors`))
	assert.Equal(t, 1, authors)
	assert.Equal(t, 1, links)
}

func TestUpsertExtractionEmptyTitleGetsSentinel(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	record, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/a.pdf", &models.ExtractionResult{
		Title: "   ", Authors: []string{"Someone"},
	})
	require.NoError(t, err)
	assert.Equal(t, TitleNotFound, record.Title)

	paper, err := repo.GetByID(ctx, "paper-1")
	require.NoError(t, err)
	assert.Equal(t, TitleNotFound, paper.Title)
}

func TestUpsertExtractionEmptyAuthors(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	record, err := repo.UpsertExtraction(ctx, "paper-1", "/uploads/a.pdf", &models.ExtractionResult{
		Title: "No Authors Listed", Authors: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, record.Authors)

	paper, err := repo.GetByID(ctx, "paper-1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, paper.Authors)
}

func TestGetByIDUnknownPaper(t *testing.T) {
	repo, _ := newTestRepo(t)

	paper, err := repo.GetByID(context.Background(), "no-such-paper")
	require.NoError(t, err)
	assert.Nil(t, paper)
}
