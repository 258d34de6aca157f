package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/dagcheck"
)

// RecordValidation inserts one history entry.
// If rec.ID is empty, a UUID is auto-generated. CreatedAt is filled from the database.
// Returns the record ID (generated or provided).
func (s *PGStore) RecordValidation(ctx context.Context, rec *dagcheck.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO dag_validations (id, num_nodes, num_edges, is_dag, error)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		rec.ID, rec.NumNodes, rec.NumEdges, rec.IsDAG, rec.Error,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("dagcheck: insert validation: %w", err)
	}

	return rec.ID, nil
}

// GetValidation fetches a single history entry by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetValidation(ctx context.Context, id string) (*dagcheck.Record, error) {
	var r dagcheck.Record
	err := s.db.QueryRow(ctx,
		`SELECT id, num_nodes, num_edges, is_dag, error, created_at FROM dag_validations WHERE id = $1`, id,
	).Scan(&r.ID, &r.NumNodes, &r.NumEdges, &r.IsDAG, &r.Error, &r.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dagcheck: get validation: %w", err)
	}

	return &r, nil
}

// ListValidations returns up to limit entries, newest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListValidations(ctx context.Context, limit int) ([]dagcheck.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, num_nodes, num_edges, is_dag, error, created_at
		 FROM dag_validations ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("dagcheck: list validations: %w", err)
	}
	defer rows.Close()

	records := []dagcheck.Record{}
	for rows.Next() {
		var r dagcheck.Record
		if err := rows.Scan(&r.ID, &r.NumNodes, &r.NumEdges, &r.IsDAG, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("dagcheck: scan validation: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dagcheck: rows validations: %w", err)
	}

	return records, nil
}

// DeleteValidation deletes a history entry by its ID.
// Returns ErrRecordNotFound if the entry doesn't exist.
func (s *PGStore) DeleteValidation(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM dag_validations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("dagcheck: delete validation: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return dagcheck.ErrRecordNotFound
	}
	return nil
}
