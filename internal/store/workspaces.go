package store

import (
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// WorkspaceStore reads workspace records. Writes happen as part of
// ResolutionStore.Record.
type WorkspaceStore struct {
	db *DB
}

// NewWorkspaceStore creates a new workspace store.
func NewWorkspaceStore(db *DB) *WorkspaceStore {
	return &WorkspaceStore{db: db}
}

// GetByRootPath retrieves a workspace record by root path. It returns nil
// when the root has never been recorded.
func (s *WorkspaceStore) GetByRootPath(rootPath string) (*Workspace, error) {
	query := `
		SELECT id, root_path, root_name, last_resolved_at, resolution_count,
			created_at, updated_at
		FROM workspaces WHERE root_path = ?
	`

	var ws Workspace
	var lastResolved, createdAt, updatedAt storedTime
	err := s.db.sqlDB.QueryRow(query, rootPath).Scan(
		&ws.ID, &ws.RootPath, &ws.RootName, &lastResolved,
		&ws.ResolutionCount, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	ws.LastResolvedAt = lastResolved.ptr()
	ws.CreatedAt = createdAt.Time
	ws.UpdatedAt = updatedAt.Time

	return &ws, nil
}

// upsertWorkspace runs inside the transaction that records a resolution.
func upsertWorkspace(tx *sql.Tx, ws *Workspace) error {
	if ws == nil {
		return fmt.Errorf("workspace is nil")
	}
	if ws.RootPath == "" {
		return fmt.Errorf("workspace root path is required")
	}
	if ws.ID == "" {
		ws.ID = workspaceID(ws.RootPath)
	}

	now := time.Now().UTC()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	ws.UpdatedAt = now

	var lastResolved any
	if ws.LastResolvedAt != nil && !ws.LastResolvedAt.IsZero() {
		lastResolved = formatTime(*ws.LastResolvedAt)
	}

	query := `
		INSERT INTO workspaces (
			id, root_path, root_name, last_resolved_at, resolution_count,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(root_path) DO UPDATE SET
			root_name = excluded.root_name,
			last_resolved_at = excluded.last_resolved_at,
			resolution_count = excluded.resolution_count,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(
		query,
		ws.ID, ws.RootPath, ws.RootName, lastResolved, ws.ResolutionCount,
		formatTime(ws.CreatedAt), formatTime(ws.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to upsert workspace: %w", err)
	}

	return nil
}

func workspaceID(rootPath string) string {
	hash := sha1.Sum([]byte(rootPath))
	return hex.EncodeToString(hash[:])
}
