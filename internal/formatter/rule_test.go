package formatter

import (
	"testing"
)

// spotlessRules mirrors a typical spotless configuration for a mixed
// Kotlin/Java/YAML/JSON/Python tree.
func spotlessRules() []Rule {
	return []Rule{
		{Name: "kotlinGradle", FileGlob: "**/*.kts", ToolName: "ktlint"},
		{
			Name:     "java",
			FileGlob: "**/*.java",
			ToolName: "googleJavaFormat",
			ToolOptions: map[string]string{
				"reflowLongStrings":     "true",
				"skipJavadocFormatting": "true",
				"reorderImports":        "false",
			},
		},
		{
			Name:         "yaml",
			FileGlob:     "**/*.yaml",
			ExcludeGlobs: []string{"**/.gradle/**", "codespace/chart/**", "slurm/chart/**", "**/pnpm-lock.yaml"},
			ToolName:     "jackson",
			ToolOptions:  map[string]string{"feature.ORDER_MAP_ENTRIES_BY_KEYS": "false"},
		},
		{
			Name:         "json",
			FileGlob:     "**/*.json",
			ExcludeGlobs: []string{"**/.gradle/**"},
			ToolName:     "jackson",
			ToolOptions:  map[string]string{"feature.ORDER_MAP_ENTRIES_BY_KEYS": "true"},
		},
		{Name: "python", FileGlob: "**/*.py", ExcludeGlobs: []string{"**/csst/**", "**/venv/**"}},
	}
}

func mustEngine(t *testing.T, rules []Rule) *Engine {
	t.Helper()
	e, err := NewEngine(rules)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngine_ExcludeBeforeInclude(t *testing.T) {
	e := mustEngine(t, []Rule{{Name: "yaml", FileGlob: "**/*.yaml", ExcludeGlobs: []string{"**/.gradle/**"}}})

	if r, ok := e.Match(".gradle/x.yaml"); ok {
		t.Errorf("Match(.gradle/x.yaml) = %s, want no match", r.Name)
	}
	if _, ok := e.Match("chart/values.yaml"); !ok {
		t.Error("Match(chart/values.yaml) = no match, want yaml")
	}
}

func TestEngine_Match(t *testing.T) {
	e := mustEngine(t, spotlessRules())

	tests := []struct {
		file string
		want string
	}{
		{"settings.gradle.kts", "kotlinGradle"},
		{"milvus/java/build.gradle.kts", "kotlinGradle"},
		{"milvus/java/src/main/java/org/example/Main.java", "java"},
		{"chart/values.yaml", "yaml"},
		{"./chart/values.yaml", "yaml"},
		{"values.yaml", "yaml"},
		{"codespace/chart/values.yaml", ""},
		{"web/pnpm-lock.yaml", ""},
		{"milvus/.gradle/cache.json", ""},
		{"package.json", "json"},
		{"milvus/python/app.py", "python"},
		{"milvus/python/venv/lib/site.py", ""},
		{"README.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			r, ok := e.Match(tt.file)
			got := ""
			if ok {
				got = r.Name
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestEngine_FirstMatchWins(t *testing.T) {
	e := mustEngine(t, []Rule{
		{Name: "charts", FileGlob: "chart/**/*.yaml", ToolName: "prettier"},
		{Name: "yaml", FileGlob: "**/*.yaml", ToolName: "jackson"},
	})
	r, ok := e.Match("chart/templates/deploy.yaml")
	if !ok || r.Name != "charts" {
		t.Errorf("Match() = %v, %v; want charts", r, ok)
	}
	r, ok = e.Match("app/config.yaml")
	if !ok || r.Name != "yaml" {
		t.Errorf("Match() = %v, %v; want yaml", r, ok)
	}
}

func TestEngine_ExcludedFileFallsThroughToLaterRule(t *testing.T) {
	e := mustEngine(t, []Rule{
		{Name: "yaml", FileGlob: "**/*.yaml", ExcludeGlobs: []string{"chart/**"}},
		{Name: "charts", FileGlob: "chart/**"},
	})
	r, ok := e.Match("chart/values.yaml")
	if !ok || r.Name != "charts" {
		t.Errorf("Match() = %v, %v; want charts", r, ok)
	}
}

func TestNewEngine_MalformedGlob(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		bad   string
	}{
		{"bad include", []Rule{{Name: "x", FileGlob: "**/[*.yaml"}}, "**/[*.yaml"},
		{"bad exclude", []Rule{{Name: "x", FileGlob: "**/*.yaml", ExcludeGlobs: []string{"{a,b"}}}, "{a,b"},
		{"empty include", []Rule{{Name: "x", FileGlob: " "}}, " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.rules)
			if !IsMalformedGlob(err) {
				t.Fatalf("NewEngine() error = %v, want MalformedGlobError", err)
			}
			if got := err.(*MalformedGlobError).Pattern; got != tt.bad {
				t.Errorf("Pattern = %q, want %q", got, tt.bad)
			}
		})
	}
}

func TestEngine_Explain(t *testing.T) {
	e := mustEngine(t, spotlessRules())

	decisions := e.Explain("codespace/chart/values.yaml")
	if len(decisions) != 5 {
		t.Fatalf("Explain() returned %d decisions, want 5", len(decisions))
	}
	yaml := decisions[2]
	if yaml.ExcludedBy != "codespace/chart/**" || yaml.Included || yaml.Selected {
		t.Errorf("yaml decision = %+v", yaml)
	}

	decisions = e.Explain("a/b.json")
	selected := 0
	for _, d := range decisions {
		if d.Selected {
			selected++
			if d.Rule != "json" {
				t.Errorf("selected rule = %s, want json", d.Rule)
			}
		}
	}
	if selected != 1 {
		t.Errorf("selected %d rules, want 1", selected)
	}
}

func TestRule_Invocation(t *testing.T) {
	r := Rule{ToolName: "jackson", ToolOptions: map[string]string{"b": "2", "a": "1"}}
	if got := r.Invocation(); got != "jackson a=1 b=2" {
		t.Errorf("Invocation() = %q", got)
	}
	if got := (&Rule{}).Invocation(); got != "(no tool)" {
		t.Errorf("Invocation() without tool = %q", got)
	}
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - name: yaml
    target: "**/*.yaml"
    exclude: ["**/.gradle/**"]
    tool: jackson
    options:
      yaml.MINIMIZE_QUOTES: "true"
  - target: "**/*.py"
`)
	rules, err := ParseRules(data)
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[0].ToolOptions["yaml.MINIMIZE_QUOTES"] != "true" || rules[0].ExcludeGlobs[0] != "**/.gradle/**" {
		t.Errorf("rules[0] = %+v", rules[0])
	}
	if rules[1].Name != "rule-2" {
		t.Errorf("unnamed rule got name %q", rules[1].Name)
	}

	out, err := MarshalRules(rules)
	if err != nil {
		t.Fatalf("MarshalRules() error = %v", err)
	}
	again, err := ParseRules(out)
	if err != nil || len(again) != 2 || again[0].FileGlob != "**/*.yaml" {
		t.Errorf("re-parse = %+v, %v", again, err)
	}
}
