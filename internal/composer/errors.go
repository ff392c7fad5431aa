package composer

import (
	"errors"
	"fmt"
)

// DuplicatePathError is returned when the same project path is enabled twice.
type DuplicatePathError struct {
	Path      string
	FirstLine int
	Line      int
}

func (e *DuplicatePathError) Error() string {
	if e.FirstLine > 0 || e.Line > 0 {
		return fmt.Sprintf("duplicate project path %q (line %d, first declared on line %d)", e.Path, e.Line, e.FirstLine)
	}
	return fmt.Sprintf("duplicate project path %q", e.Path)
}

// InvalidPathError is returned for a declaration whose path cannot be
// normalised.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid project path %q: %s", e.Path, e.Reason)
}

// UnknownPathError is returned by Toggle when no declaration has the path.
type UnknownPathError struct {
	Path string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("no declaration for project path %q", e.Path)
}

// IsDuplicatePath checks if err is (or wraps) a DuplicatePathError
func IsDuplicatePath(err error) bool {
	var target *DuplicatePathError
	return errors.As(err, &target)
}

// IsUnknownPath checks if err is (or wraps) an UnknownPathError
func IsUnknownPath(err error) bool {
	var target *UnknownPathError
	return errors.As(err, &target)
}
