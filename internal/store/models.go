package store

import "time"

// Workspace is a build tree that has been resolved at least once.
type Workspace struct {
	ID              string     `json:"id"`
	RootPath        string     `json:"root_path"`
	RootName        string     `json:"root_name"`
	LastResolvedAt  *time.Time `json:"last_resolved_at,omitempty"`
	ResolutionCount int        `json:"resolution_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Resolution is one recorded snapshot of a resolved project tree.
type Resolution struct {
	ID            int64     `json:"id"`
	WorkspaceID   string    `json:"workspace_id"`
	Fingerprint   string    `json:"fingerprint"`
	RootName      string    `json:"root_name"`
	TargetCount   int       `json:"target_count"`
	ImplicitCount int       `json:"implicit_count"`
	DisabledCount int       `json:"disabled_count"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// ProjectRecord is a project node as stored with a resolution.
type ProjectRecord struct {
	Position    int    `json:"position"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Dir         string `json:"dir"`
	Enabled     bool   `json:"enabled"`
	Implicit    bool   `json:"implicit,omitempty"`
	Line        int    `json:"line,omitempty"`
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
