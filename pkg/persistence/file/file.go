// Package file provides JSON-file backed persistence, suited to local
// development and the CLI runner.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	graphsDir      = "graphs"
	runsDir        = "runs"
	connectionsDir = "connections"

	dirPerm  = 0750
	filePerm = 0600
)

// Persistence stores each record as one JSON file under a root directory.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at root.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.TrimPrefix(root, "file://")}
}

// HealthCheck verifies the root directory is usable.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(p.root, dirPerm); err != nil {
		return fmt.Errorf("persistence root unavailable: %w", err)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// validateID guards file-name construction against path traversal.
func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

func (p *Persistence) writeRecord(dir, id string, record any) error {
	if err := validateID(id); err != nil {
		return err
	}

	target := filepath.Join(p.root, dir)
	if err := os.MkdirAll(target, dirPerm); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", dir, id, err)
	}

	if err := os.WriteFile(filepath.Join(target, id+".json"), data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", dir, id, err)
	}

	return nil
}

func (p *Persistence) readRecord(dir, id string, record any) error {
	if err := validateID(id); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(p.root, dir, id+".json")) // #nosec G304 -- id is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}

		return fmt.Errorf("failed to read %s/%s: %w", dir, id, err)
	}

	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("failed to unmarshal %s/%s: %w", dir, id, err)
	}

	return nil
}

func (p *Persistence) listIDs(dir string) ([]string, error) {
	root := os.DirFS(filepath.Join(p.root, dir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, name := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

func (p *Persistence) deleteRecord(dir, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(p.root, dir, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s/%s: %w", dir, id, err)
	}

	if os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}
