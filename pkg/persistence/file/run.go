package file

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
)

// SaveRun writes a run record.
func (p *Persistence) SaveRun(_ context.Context, run *models.RunRecord) error {
	if err := p.writeRecord(runsDir, run.ID, run); err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}

// RunByID returns the run record with the given ID.
func (p *Persistence) RunByID(_ context.Context, id string) (*models.RunRecord, error) {
	var run models.RunRecord

	err := p.readRecord(runsDir, id, &run)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("GetByID", id, err)
	}

	return &run, nil
}

// RunByCorrelationToken scans runs for a matching correlation token.
func (p *Persistence) RunByCorrelationToken(ctx context.Context, token string) (*models.RunRecord, error) {
	ids, err := p.listIDs(runsDir)
	if err != nil {
		return nil, persistence.NewRunError("GetByToken", token, persistence.ErrRunNotFound)
	}

	for _, id := range ids {
		run, err := p.RunByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if run.CorrelationToken == token {
			return run, nil
		}
	}

	return nil, persistence.NewRunError("GetByToken", token, persistence.ErrRunNotFound)
}

// RunsByGraphID returns the graph's runs, newest first.
func (p *Persistence) RunsByGraphID(ctx context.Context, graphID string) ([]*models.RunRecord, error) {
	ids, err := p.listIDs(runsDir)
	if err != nil {
		return make([]*models.RunRecord, 0), nil
	}

	runs := make([]*models.RunRecord, 0, len(ids))

	for _, id := range ids {
		run, err := p.RunByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if run.GraphID == graphID {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}
