package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/config"
	"github.com/DreamCats/buildcomp/internal/gradle"
)

// ToggleResult describes a settings change.
type ToggleResult struct {
	Path    string
	Enabled bool
	Changed bool
	// Added and Removed are the target paths that appear or disappear.
	Added   []string
	Removed []string
}

// SetEnabled enables or disables the include of path in the settings script
// under root. The rewritten script must still resolve; otherwise nothing is
// written. With dryRun set the file is left untouched.
func SetEnabled(cfg *config.Config, root, path string, enabled, dryRun bool) (*ToggleResult, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	settingsPath := filepath.Join(root, cfg.Workspace.SettingsFile)
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	content := string(data)

	before, err := resolveContent(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", settingsPath, err)
	}
	updated, changed, err := gradle.ToggleInclude(content, path, enabled)
	if err != nil {
		return nil, err
	}
	canonical, _ := composer.NormalizePath(path)
	result := &ToggleResult{Path: canonical, Enabled: enabled, Changed: changed}
	if !changed {
		return result, nil
	}

	after, err := resolveContent(updated)
	if err != nil {
		return nil, fmt.Errorf("%s after toggling %s: %w", settingsPath, canonical, err)
	}
	result.Added, result.Removed = composer.Diff(before.EnabledPaths(), after.EnabledPaths())

	if dryRun {
		return result, nil
	}
	if err := writeFileAtomic(settingsPath, []byte(updated)); err != nil {
		return nil, err
	}
	return result, nil
}

func resolveContent(content string) (*composer.Tree, error) {
	s, err := gradle.ParseSettings(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	return composer.Resolve(s.RootName, s.Includes, s.Renames)
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
