package gradle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SyntaxError reports a declaration that cannot be parsed. Parsing stops at
// the first one.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// IsSyntaxError checks if err is (or wraps) a SyntaxError
func IsSyntaxError(err error) bool {
	var target *SyntaxError
	return errors.As(err, &target)
}

// statement is one logical line handed to a visitor.
type statement struct {
	line int
	code string
	raw  string
	// stack holds the enclosing block names, outermost first.
	stack []string
	// opens is set when the statement opens a block that continues on the
	// following lines; the block is pushed after the visit.
	opens bool
	// disabled marks code found behind a leading "//".
	disabled bool
}

func (s statement) in(names ...string) bool {
	if len(s.stack) != len(names) {
		return false
	}
	for i, n := range names {
		if n != "*" && s.stack[i] != n {
			return false
		}
	}
	return true
}

type visitor interface {
	statement(st statement) error
	closeBlock(name string, stack []string, line int) error
}

// scan walks a Kotlin DSL script line by line, tracking block nesting.
// Commented-out single-line statements are reported with disabled set;
// they never affect nesting.
func scan(r io.Reader, v visitor) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var stack []string
	lineNum := 0
	commentDepth := 0
	commentLine := 0

	fail := func(msg string, args ...interface{}) error {
		return &SyntaxError{Line: lineNum, Msg: fmt.Sprintf(msg, args...)}
	}
	snapshot := func() []string {
		return append([]string(nil), stack...)
	}

	for sc.Scan() {
		lineNum++
		raw := sc.Text()
		wasOpen := commentDepth > 0
		var live string
		live, commentDepth = stripBlockComments(raw, commentDepth)
		if commentDepth > 0 && !wasOpen {
			commentLine = lineNum
		}
		trimmed := strings.TrimSpace(live)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "//") {
			inner, _ := splitComment(strings.TrimSpace(strings.TrimLeft(trimmed, "/")))
			inner = strings.TrimSpace(inner)
			if inner == "" {
				continue
			}
			opens, closes, err := braceDelta(inner)
			if err != nil || opens != closes {
				// commented-out block fragments carry no declaration
				continue
			}
			if err := v.statement(statement{line: lineNum, code: inner, raw: raw, stack: snapshot(), disabled: true}); err != nil {
				return err
			}
			continue
		}

		code, _ := splitComment(trimmed)
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		opens, closes, err := braceDelta(code)
		if err != nil {
			return fail("%v", err)
		}

		switch {
		case opens == closes:
			if err := v.statement(statement{line: lineNum, code: code, raw: raw, stack: snapshot()}); err != nil {
				return err
			}
		case opens > closes:
			if err := v.statement(statement{line: lineNum, code: code, raw: raw, stack: snapshot(), opens: true}); err != nil {
				return err
			}
			stack = append(stack, blockName(code))
			for i := 1; i < opens-closes; i++ {
				stack = append(stack, "")
			}
		default:
			if head := strings.TrimSpace(code[:strings.Index(code, "}")]); head != "" && opens == 0 {
				if err := v.statement(statement{line: lineNum, code: head, raw: raw, stack: snapshot()}); err != nil {
					return err
				}
			}
			for i := 0; i < closes-opens; i++ {
				if len(stack) == 0 {
					return fail("unexpected '}'")
				}
				name := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if err := v.closeBlock(name, snapshot(), lineNum); err != nil {
					return err
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if commentDepth > 0 {
		return &SyntaxError{Line: commentLine, Msg: "unterminated block comment"}
	}
	if len(stack) > 0 {
		return fail("unclosed block %q", stack[len(stack)-1])
	}
	return nil
}
