package composer

import (
	"strings"
)

// NormalizePath converts a project path to its canonical form: segments
// joined by ':' without a leading separator. Both ':' and '/' are accepted
// as delimiters, so ":milvus:java", "milvus/java" and "milvus:java" are the
// same project.
func NormalizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	trimmed = strings.ReplaceAll(trimmed, "/", ":")
	trimmed = strings.TrimPrefix(trimmed, ":")
	if trimmed == "" {
		return "", &InvalidPathError{Path: path, Reason: "empty path"}
	}
	segments := strings.Split(trimmed, ":")
	for _, seg := range segments {
		if seg == "" {
			return "", &InvalidPathError{Path: path, Reason: "empty segment"}
		}
		if strings.ContainsAny(seg, " \t\"\\") {
			return "", &InvalidPathError{Path: path, Reason: "illegal character in segment " + seg}
		}
	}
	return strings.Join(segments, ":"), nil
}

// Segments splits a canonical path.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ":")
}

// ParentPath returns the canonical parent of path, or "" for a top-level project.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, ":")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// LeafName returns the last segment of a canonical path.
func LeafName(path string) string {
	idx := strings.LastIndex(path, ":")
	return path[idx+1:]
}

// ProjectDir maps a canonical path to the project directory, relative to
// the root, using forward slashes.
func ProjectDir(path string) string {
	return strings.ReplaceAll(path, ":", "/")
}

// ancestors returns the proper ancestors of path, outermost first.
func ancestors(path string) []string {
	segs := Segments(path)
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], ":"))
	}
	return out
}
