package gradle

import (
	"fmt"
	"strings"

	"github.com/DreamCats/buildcomp/internal/composer"
)

// ToggleInclude rewrites settings script content so that the include of
// path is enabled or disabled, by removing or adding the leading "//" on
// the include lines the parser reports for it. Other lines are left
// byte-for-byte intact. It reports whether anything changed.
func ToggleInclude(content, path string, enabled bool) (string, bool, error) {
	settings, err := ParseSettings(strings.NewReader(content))
	if err != nil {
		return "", false, err
	}
	toggled, err := composer.Toggle(settings.Includes, path, enabled)
	if err != nil {
		return "", false, err
	}

	perLine := make(map[int]int)
	for _, d := range settings.Includes {
		perLine[d.Line]++
	}

	lines := strings.Split(content, "\n")
	changed := false
	for i, d := range settings.Includes {
		if toggled[i].Enabled == d.Enabled {
			continue
		}
		if perLine[d.Line] > 1 {
			return "", false, fmt.Errorf("line %d: %q shares an include statement with other projects", d.Line, d.Path)
		}
		if d.Line < 1 || d.Line > len(lines) {
			return "", false, fmt.Errorf("line %d: include of %q is out of range", d.Line, d.Path)
		}
		line := lines[d.Line-1]
		if stripped, depth := stripBlockComments(line, 0); stripped != line || depth != 0 {
			return "", false, fmt.Errorf("line %d: include of %q shares its line with a block comment", d.Line, d.Path)
		}
		if enabled {
			lines[d.Line-1] = uncomment(line)
		} else {
			lines[d.Line-1] = comment(line)
		}
		changed = true
	}
	if !changed {
		return content, false, nil
	}
	return strings.Join(lines, "\n"), true, nil
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func comment(line string) string {
	indent := indentOf(line)
	return indent + "//" + line[len(indent):]
}

func uncomment(line string) string {
	indent := indentOf(line)
	body := strings.TrimLeft(line[len(indent):], "/")
	return indent + strings.TrimLeft(body, " \t")
}
