package repository

import (
	"context"
	"fmt"

	"trafficsafe-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LegalSectionRepository handles database operations for legal corpus sections
type LegalSectionRepository struct {
	db *pgxpool.Pool
}

// NewLegalSectionRepository creates a new legal section repository
func NewLegalSectionRepository(db *pgxpool.Pool) *LegalSectionRepository {
	return &LegalSectionRepository{db: db}
}

// ListAll returns every section in corpus order
func (r *LegalSectionRepository) ListAll(ctx context.Context) ([]models.LegalSection, error) {
	query := `
		SELECT position, title, section_text
		FROM legal_sections
		ORDER BY position ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query legal sections: %w", err)
	}
	defer rows.Close()

	var sections []models.LegalSection
	for rows.Next() {
		var s models.LegalSection
		if err := rows.Scan(&s.Position, &s.Title, &s.Text); err != nil {
			return nil, fmt.Errorf("failed to scan legal section: %w", err)
		}
		sections = append(sections, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legal sections: %w", err)
	}

	return sections, nil
}

// Replace swaps the stored corpus for sections in a single transaction
func (r *LegalSectionRepository) Replace(ctx context.Context, source string, sections []models.LegalSection) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM legal_sections"); err != nil {
		return fmt.Errorf("failed to clear legal sections: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range sections {
		batch.Queue(`
			INSERT INTO legal_sections (position, title, section_text, source_document)
			VALUES ($1, $2, $3, $4)`,
			s.Position, s.Title, s.Text, source,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert legal sections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit legal sections: %w", err)
	}
	return nil
}

// Count returns the number of stored sections
func (r *LegalSectionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM legal_sections").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count legal sections: %w", err)
	}
	return n, nil
}
