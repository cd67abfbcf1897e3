package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// TransferRepository implements models.Repository[*models.TransferResult] over the transfers table.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new TransferRepository with the given database connection
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferColumns = `id, source_id, target_id, items_total, items_transferred, batches, batch_size, error, created_at`

// Create inserts a transfer result. An empty ID is replaced with a generated one.
func (r *TransferRepository) Create(ctx context.Context, t *models.TransferResult) error {
	if t.TransferID == "" {
		t.TransferID = shared.GenerateID()
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO transfers (` + transferColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.TransferID,
		t.SourceID,
		t.TargetID,
		t.ItemsTotal,
		t.ItemsTransferred,
		t.Batches,
		t.BatchSize,
		t.Error,
		t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

// Get retrieves a transfer by ID
func (r *TransferRepository) Get(ctx context.Context, id string) (*models.TransferResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id)
	t, err := scanTransfer(row)
	if isNoRows(err) {
		return nil, shared.NewResourceNotFound("transfer", id, shared.ErrNotFound)
	}
	return t, err
}

// Delete removes a transfer by ID
func (r *TransferRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}
	return affectedOne(result, shared.NewResourceNotFound("transfer", id, shared.ErrNotFound))
}

// List returns transfers newest first. Supported criteria: source_id, target_id (string) and limit (int).
func (r *TransferRepository) List(ctx context.Context, criteria map[string]any) ([]*models.TransferResult, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE 1 = 1`
	args := []any{}

	if sourceID, ok := criteria["source_id"].(string); ok && sourceID != "" {
		query += " AND source_id = ?"
		args = append(args, sourceID)
	}

	if targetID, ok := criteria["target_id"].(string); ok && targetID != "" {
		query += " AND target_id = ?"
		args = append(args, targetID)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []*models.TransferResult{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return transfers, nil
}

func scanTransfer(s scanner) (*models.TransferResult, error) {
	var t models.TransferResult
	err := s.Scan(
		&t.TransferID, &t.SourceID, &t.TargetID, &t.ItemsTotal, &t.ItemsTransferred,
		&t.Batches, &t.BatchSize, &t.Error, &t.Timestamp,
	)
	if isNoRows(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfer: %w", err)
	}
	return &t, nil
}
