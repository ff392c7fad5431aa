package gradle

import (
	"fmt"
	"strings"
)

// call is one invocation in a call chain such as
// `jackson().feature("ORDER_MAP_ENTRIES_BY_KEYS", true)`.
type call struct {
	name    string
	args    []string
	hasArgs bool
}

// splitComment separates code from a trailing // comment, ignoring
// slashes inside string literals.
func splitComment(line string) (code, comment string) {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case c == '/' && !inString && i+1 < len(line) && line[i+1] == '/':
			return line[:i], line[i+2:]
		}
	}
	return line, ""
}

// stripBlockComments removes /* */ comments outside string literals from
// line. depth is the nesting level of a comment still open from earlier
// lines (Kotlin block comments nest); the level at the end of the line is
// returned. A "//" outside strings ends the scan, so "/*" behind it does not
// open a comment. Each removed comment that ends on this line leaves a space.
func stripBlockComments(line string, depth int) (string, int) {
	if depth == 0 && !strings.Contains(line, "/*") {
		return line, 0
	}
	var b strings.Builder
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		next := byte(0)
		if i+1 < len(line) {
			next = line[i+1]
		}
		if depth > 0 {
			switch {
			case c == '/' && next == '*':
				depth++
				i++
			case c == '*' && next == '/':
				depth--
				i++
				if depth == 0 {
					b.WriteByte(' ')
				}
			}
			continue
		}
		switch {
		case inString && c == '\\' && next != 0:
			b.WriteByte(c)
			b.WriteByte(next)
			i++
			continue
		case c == '"':
			inString = !inString
		case !inString && c == '/' && next == '/':
			b.WriteString(line[i:])
			return b.String(), 0
		case !inString && c == '/' && next == '*':
			depth = 1
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), depth
}

// braceDelta counts '{' and '}' outside string literals.
func braceDelta(code string) (opens, closes int, err error) {
	inString := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case c == '{' && !inString:
			opens++
		case c == '}' && !inString:
			closes++
		}
	}
	if inString {
		return 0, 0, fmt.Errorf("unterminated string literal")
	}
	return opens, closes, nil
}

// parseChain reads `name(args).name(args)...`. Trailing text that is not
// part of the chain is returned in rest.
func parseChain(s string) ([]call, string, error) {
	var calls []call
	s = strings.TrimSpace(s)
	for s != "" {
		s = strings.TrimPrefix(s, "?")
		if len(calls) > 0 {
			if !strings.HasPrefix(s, ".") {
				break
			}
			s = strings.TrimSpace(s[1:])
		} else {
			s = strings.TrimPrefix(s, ".")
		}

		name, after := readIdent(s)
		if name == "" {
			break
		}
		c := call{name: name}
		after = strings.TrimLeft(after, " \t")
		if strings.HasPrefix(after, "(") {
			inner, tail, err := readParens(after)
			if err != nil {
				return nil, "", err
			}
			args, err := splitArgs(inner)
			if err != nil {
				return nil, "", err
			}
			c.args = args
			c.hasArgs = true
			after = tail
		}
		calls = append(calls, c)
		s = strings.TrimSpace(after)
		if !c.hasArgs {
			break
		}
	}
	return calls, s, nil
}

func readIdent(s string) (string, string) {
	if strings.HasPrefix(s, "`") {
		end := strings.Index(s[1:], "`")
		if end < 0 {
			return "", s
		}
		return s[1 : end+1], s[end+2:]
	}
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '_' || c == '.' && i > 0 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9' && i > 0) {
			i++
			continue
		}
		break
	}
	name := strings.TrimSuffix(s[:i], ".")
	return name, s[len(name):]
}

// readParens expects s to start with '(' and returns the text between it
// and the matching ')'.
func readParens(s string) (inner, rest string, err error) {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	if inString {
		return "", "", fmt.Errorf("unterminated string literal")
	}
	return "", "", fmt.Errorf("unbalanced parentheses")
}

// splitArgs splits a call's argument list on top-level commas.
func splitArgs(inner string) ([]string, error) {
	var args []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(inner[start:i]))
			start = i + 1
		}
	}
	if inString {
		return nil, fmt.Errorf("unterminated string literal")
	}
	if last := strings.TrimSpace(inner[start:]); last != "" || len(args) > 0 {
		args = append(args, last)
	}
	return args, nil
}

// unquote returns the content of a double-quoted Kotlin string literal.
func unquote(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if len(expr) < 2 || expr[0] != '"' || expr[len(expr)-1] != '"' {
		return "", false
	}
	body := expr[1 : len(expr)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			b.WriteByte(body[i])
			continue
		}
		if c == '"' {
			return "", false
		}
		b.WriteByte(c)
	}
	return b.String(), true
}

// argValue renders an argument as an option value: string literals are
// unquoted, everything else (booleans, numbers) is kept verbatim.
func argValue(expr string) string {
	if v, ok := unquote(expr); ok {
		return v
	}
	return strings.TrimSpace(expr)
}

// namedArg splits `name = value` arguments.
func namedArg(expr string) (string, string, bool) {
	idx := strings.Index(expr, "=")
	if idx <= 0 {
		return "", "", false
	}
	name := strings.TrimSpace(expr[:idx])
	if _, rest := readIdent(name); rest != "" {
		return "", "", false
	}
	return name, strings.TrimSpace(expr[idx+1:]), true
}

// blockName extracts the name of a block opener like `maven {`,
// `configure<SpotlessExtension> {` or `tasks.test {`.
func blockName(code string) string {
	head := strings.TrimSpace(code)
	if idx := strings.Index(head, "{"); idx >= 0 {
		head = strings.TrimSpace(head[:idx])
	}
	if idx := strings.Index(head, "("); idx >= 0 {
		head = strings.TrimSpace(head[:idx])
	}
	return head
}
