package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
)

const runColumns = `id, graph_id, status, logs, correlation_token, inputs, metadata, created_at, started_at, finished_at`

// SaveRun upserts a run record.
func (p *Persistence) SaveRun(ctx context.Context, run *models.RunRecord) error {
	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, fmt.Errorf("failed to marshal inputs: %w", err))
	}

	metadataJSON, err := json.Marshal(run.Metadata)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, fmt.Errorf("failed to marshal metadata: %w", err))
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			logs = EXCLUDED.logs,
			inputs = EXCLUDED.inputs,
			metadata = EXCLUDED.metadata,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err = p.db.ExecContext(ctx, query,
		run.ID,
		run.GraphID,
		run.Status,
		run.LogBlob,
		run.CorrelationToken,
		inputsJSON,
		metadataJSON,
		run.CreatedAt,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}

// RunByID returns the run record with the given ID.
func (p *Persistence) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("GetByID", id, err)
	}

	return run, nil
}

// RunByCorrelationToken returns the run addressed by a callback token.
func (p *Persistence) RunByCorrelationToken(ctx context.Context, token string) (*models.RunRecord, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE correlation_token = $1`, token)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRunError("GetByToken", token, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("GetByToken", token, err)
	}

	return run, nil
}

// RunsByGraphID returns the graph's runs, newest first.
func (p *Persistence) RunsByGraphID(ctx context.Context, graphID string) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE graph_id = $1 ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, query, graphID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer p.closeRows(ctx, rows)

	var runs []*models.RunRecord

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		run          models.RunRecord
		inputsJSON   []byte
		metadataJSON []byte
	)

	err := row.Scan(
		&run.ID,
		&run.GraphID,
		&run.Status,
		&run.LogBlob,
		&run.CorrelationToken,
		&inputsJSON,
		&metadataJSON,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(inputsJSON, &run.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
	}

	if err := json.Unmarshal(metadataJSON, &run.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &run, nil
}
