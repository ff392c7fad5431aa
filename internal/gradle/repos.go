package gradle

import (
	"regexp"
	"strings"

	"github.com/DreamCats/buildcomp/internal/repository"
)

var envExprRe = regexp.MustCompile(`^System\.getenv\(\s*"([^"]+)"\s*\)(?:\s*\?:\s*"((?:[^"\\]|\\.)*)")?$`)

// parseURLExpr understands `"https://..."`, `uri("...")` and
// `System.getenv("VAR") ?: "default"`, optionally wrapped in uri(...).
func parseURLExpr(expr string) (url, envVar string, ok bool) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "uri(") && strings.HasSuffix(expr, ")") {
		expr = strings.TrimSpace(expr[len("uri(") : len(expr)-1])
	}
	if m := envExprRe.FindStringSubmatch(expr); m != nil {
		def := m[2]
		if v, ok := unquote(`"` + def + `"`); ok {
			def = v
		}
		return def, m[1], true
	}
	if v, ok := unquote(expr); ok {
		return v, "", true
	}
	return "", "", false
}

// parseURLSetter understands the statements that set a maven repository
// URL inside its block: `setUrl(expr)`, `url = expr` and `url(expr)`.
func parseURLSetter(code string) (url, envVar string, ok bool) {
	code = strings.TrimSpace(code)
	if name, value, isAssign := namedArg(code); isAssign && name == "url" {
		return parseURLExpr(value)
	}
	calls, _, err := parseChain(code)
	if err != nil || len(calls) == 0 {
		return "", "", false
	}
	c := calls[0]
	if (c.name == "setUrl" || c.name == "url" || c.name == "url.set") && len(c.args) == 1 {
		return parseURLExpr(c.args[0])
	}
	return "", "", false
}

// repoCollector accumulates repository declarations of one repositories
// block, keeping disabled entries as data.
type repoCollector struct {
	sources []repository.Source
	pending *repository.Source
}

func (c *repoCollector) add(src repository.Source) {
	src.Priority = len(c.sources)
	c.sources = append(c.sources, src)
}

// statement handles a line directly inside a repositories block.
func (c *repoCollector) statement(st statement) {
	calls, _, err := parseChain(st.code)
	if err != nil || len(calls) == 0 {
		return
	}
	first := calls[0]
	if u, ok := repository.ShortcutURL(first.name); ok {
		c.add(repository.Source{Name: first.name, URL: u, Enabled: !st.disabled, Line: st.line})
		return
	}
	if first.name != "maven" {
		return
	}

	src := repository.Source{Name: "maven", Enabled: !st.disabled, Line: st.line}
	if len(first.args) == 1 {
		arg := first.args[0]
		if name, value, isNamed := namedArg(arg); isNamed && name == "url" {
			arg = value
		}
		src.URL, src.EnvOverrideVar, _ = parseURLExpr(arg)
	}
	if open := strings.Index(st.code, "{"); open >= 0 {
		if st.opens {
			// multi-line block: URL follows on later lines
			c.pending = &src
			return
		}
		if end := strings.LastIndex(st.code, "}"); end > open {
			for _, part := range strings.Split(st.code[open+1:end], ";") {
				if u, env, ok := parseURLSetter(part); ok {
					src.URL, src.EnvOverrideVar = u, env
				}
			}
		}
	}
	c.add(src)
}

// mavenBody handles a line inside a multi-line maven { } block.
func (c *repoCollector) mavenBody(st statement) {
	if c.pending == nil || st.disabled {
		return
	}
	if u, env, ok := parseURLSetter(st.code); ok {
		c.pending.URL, c.pending.EnvOverrideVar = u, env
	}
}

func (c *repoCollector) closeMaven() {
	if c.pending == nil {
		return
	}
	c.add(*c.pending)
	c.pending = nil
}
