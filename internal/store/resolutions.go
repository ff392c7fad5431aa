package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DreamCats/buildcomp/internal/composer"
)

// ResolutionStore records resolved project trees per workspace.
type ResolutionStore struct {
	db         *DB
	workspaces *WorkspaceStore
	now        func() time.Time
}

// NewResolutionStore creates a new resolution store.
func NewResolutionStore(db *DB) *ResolutionStore {
	return &ResolutionStore{db: db, workspaces: NewWorkspaceStore(db), now: time.Now}
}

// Record stores a snapshot of tree for the workspace at rootPath.
func (s *ResolutionStore) Record(rootPath string, tree *composer.Tree) (*Resolution, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}

	ws, err := s.workspaces.GetByRootPath(rootPath)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		ws = &Workspace{RootPath: rootPath}
	}

	nodes := tree.Nodes()
	res := &Resolution{
		Fingerprint:   tree.Fingerprint(),
		RootName:      tree.RootName,
		TargetCount:   len(tree.Targets()),
		ImplicitCount: len(nodes) - len(tree.Targets()),
		DisabledCount: len(tree.Disabled),
		ResolvedAt:    s.now().UTC(),
	}

	err = s.db.inTx(func(tx *sql.Tx) error {
		ws.RootName = tree.RootName
		ws.LastResolvedAt = &res.ResolvedAt
		ws.ResolutionCount++
		if err := upsertWorkspace(tx, ws); err != nil {
			return err
		}
		res.WorkspaceID = ws.ID

		result, err := tx.Exec(`
			INSERT INTO resolutions (
				workspace_id, fingerprint, root_name, target_count,
				implicit_count, disabled_count, resolved_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, res.WorkspaceID, res.Fingerprint, res.RootName, res.TargetCount,
			res.ImplicitCount, res.DisabledCount, formatTime(res.ResolvedAt))
		if err != nil {
			return fmt.Errorf("failed to insert resolution: %w", err)
		}
		if res.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get resolution id: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO resolution_projects (
				resolution_id, position, path, display_name, dir, enabled, implicit, line
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare project insert: %w", err)
		}
		defer stmt.Close()

		for i, n := range nodes {
			if _, err := stmt.Exec(
				res.ID, i, n.Path, n.Name(), n.Dir,
				boolToInt(n.Enabled), boolToInt(n.Implicit), n.Line,
			); err != nil {
				return fmt.Errorf("failed to insert project %s: %w", n.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

const resolutionColumns = `
	id, workspace_id, fingerprint, root_name, target_count,
	implicit_count, disabled_count, resolved_at
`

func scanResolution(row rowScanner) (*Resolution, error) {
	var res Resolution
	var resolvedAt storedTime
	if err := row.Scan(
		&res.ID, &res.WorkspaceID, &res.Fingerprint, &res.RootName,
		&res.TargetCount, &res.ImplicitCount, &res.DisabledCount, &resolvedAt,
	); err != nil {
		return nil, err
	}
	res.ResolvedAt = resolvedAt.Time
	return &res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Latest returns the most recent resolution of the workspace at rootPath,
// or nil when none was recorded.
func (s *ResolutionStore) Latest(rootPath string) (*Resolution, error) {
	row := s.db.sqlDB.QueryRow(`SELECT `+resolutionColumns+`
		FROM resolutions WHERE workspace_id = ?
		ORDER BY id DESC LIMIT 1`, workspaceID(rootPath))
	res, err := scanResolution(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest resolution: %w", err)
	}
	return res, nil
}

// List returns up to limit resolutions of the workspace, newest first.
// A limit of zero or less returns all of them.
func (s *ResolutionStore) List(rootPath string, limit int) ([]*Resolution, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.sqlDB.Query(`SELECT `+resolutionColumns+`
		FROM resolutions WHERE workspace_id = ?
		ORDER BY id DESC LIMIT ?`, workspaceID(rootPath), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	var out []*Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolutions: %w", err)
	}
	return out, nil
}

// Projects returns the project nodes stored with a resolution, in tree order.
func (s *ResolutionStore) Projects(resolutionID int64) ([]ProjectRecord, error) {
	rows, err := s.db.sqlDB.Query(`
		SELECT position, path, display_name, dir, enabled, implicit, line
		FROM resolution_projects WHERE resolution_id = ?
		ORDER BY position
	`, resolutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectRecord
	for rows.Next() {
		var p ProjectRecord
		var enabled, implicit int
		if err := rows.Scan(&p.Position, &p.Path, &p.DisplayName, &p.Dir, &enabled, &implicit, &p.Line); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Enabled = intToBool(enabled)
		p.Implicit = intToBool(implicit)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep resolutions of the workspace and
// returns how many were removed.
func (s *ResolutionStore) Prune(rootPath string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	result, err := s.db.sqlDB.Exec(`
		DELETE FROM resolutions
		WHERE workspace_id = ? AND id NOT IN (
			SELECT id FROM resolutions WHERE workspace_id = ?
			ORDER BY id DESC LIMIT ?
		)
	`, workspaceID(rootPath), workspaceID(rootPath), keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune resolutions: %w", err)
	}
	return result.RowsAffected()
}

// TargetPaths returns the paths of the explicitly enabled projects of a
// stored resolution.
func TargetPaths(projects []ProjectRecord) []string {
	var out []string
	for _, p := range projects {
		if p.Enabled && !p.Implicit {
			out = append(out, p.Path)
		}
	}
	return out
}
