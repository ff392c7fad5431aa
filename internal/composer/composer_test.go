package composer

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tutorialDecls() []Declaration {
	return []Declaration{
		{Path: "milvus", Enabled: true, Line: 11},
		{Path: "flink:load-fits-star-catalog", Enabled: false, Line: 12},
		{Path: "flink:gaia3:download-as-parquet", Enabled: false, Line: 14},
		{Path: "metadata:es-sdk", Enabled: false, Line: 24},
		{Path: "milvus:java", Enabled: true, Line: 27},
		{Path: "flink", Enabled: true, Line: 29},
	}
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestResolve_EnabledPathsMatchActiveDeclarations(t *testing.T) {
	tree, err := Resolve("tutorial", tutorialDecls(), nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"flink", "milvus", "milvus:java"}
	if diff := cmp.Diff(want, sorted(tree.EnabledPaths())); diff != "" {
		t.Errorf("EnabledPaths() mismatch (-want +got):\n%s", diff)
	}
	if len(tree.Disabled) != 3 {
		t.Errorf("Disabled = %d entries, want 3", len(tree.Disabled))
	}
	if tree.Disabled[1].Path != "flink:gaia3:download-as-parquet" || tree.Disabled[1].Line != 14 {
		t.Errorf("Disabled[1] = %+v, want the gaia3 declaration preserved", tree.Disabled[1])
	}
}

func TestResolve_OrderDoesNotAffectMembership(t *testing.T) {
	decls := tutorialDecls()
	reversed := make([]Declaration, len(decls))
	for i, d := range decls {
		reversed[len(decls)-1-i] = d
	}

	a, err := Resolve("tutorial", decls, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, err := Resolve("tutorial", reversed, nil)
	if err != nil {
		t.Fatalf("Resolve(reversed) error = %v", err)
	}
	if diff := cmp.Diff(sorted(a.EnabledPaths()), sorted(b.EnabledPaths())); diff != "" {
		t.Errorf("enabled set depends on order (-a +b):\n%s", diff)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	renames := []Rename{{Path: ":milvus:java", Name: "java"}}
	a, err := Resolve("tutorial", tutorialDecls(), renames)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, err := Resolve("tutorial", tutorialDecls(), renames)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("Fingerprint differs: %s vs %s", a.Fingerprint(), b.Fingerprint())
	}
	opts := cmp.AllowUnexported(ProjectNode{})
	if diff := cmp.Diff(a.Nodes(), b.Nodes(), opts); diff != "" {
		t.Errorf("Nodes differ between runs (-a +b):\n%s", diff)
	}
}

func TestResolve_DuplicateEnabledPath(t *testing.T) {
	decls := []Declaration{
		{Path: "milvus", Enabled: true, Line: 1},
		{Path: "flink", Enabled: true, Line: 2},
		{Path: ":milvus", Enabled: true, Line: 3},
	}
	_, err := Resolve("tutorial", decls, nil)
	if err == nil {
		t.Fatal("Resolve() expected error for duplicate path")
	}
	var dup *DuplicatePathError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %T, want *DuplicatePathError", err)
	}
	if dup.Path != "milvus" || dup.FirstLine != 1 || dup.Line != 3 {
		t.Errorf("DuplicatePathError = %+v", dup)
	}
	if !IsDuplicatePath(err) {
		t.Error("IsDuplicatePath() = false")
	}
}

func TestResolve_DisabledDuplicatesAllowed(t *testing.T) {
	decls := []Declaration{
		{Path: "flink", Enabled: false},
		{Path: "flink", Enabled: true},
		{Path: "flink", Enabled: false},
	}
	tree, err := Resolve("tutorial", decls, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := tree.EnabledPaths(); len(got) != 1 || got[0] != "flink" {
		t.Errorf("EnabledPaths() = %v, want [flink]", got)
	}
}

func TestResolve_AliasSetsDisplayName(t *testing.T) {
	tree, err := Resolve("tutorial", tutorialDecls(), []Rename{{Path: ":milvus:java", Name: "java"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	node, ok := tree.Lookup("milvus:java")
	if !ok {
		t.Fatal("Lookup(milvus:java) not found")
	}
	if node.Name() != "java" {
		t.Errorf("Name() = %q, want java", node.Name())
	}
	if node.Dir != "milvus/java" {
		t.Errorf("Dir = %q, want milvus/java", node.Dir)
	}
}

func TestResolve_AliasOverridesLeafSegment(t *testing.T) {
	decls := []Declaration{{Path: "tutorials:service:springboot", Enabled: true}}
	tree, err := Resolve("tutorial", decls, []Rename{{Path: "tutorials:service:springboot", Name: "service-app"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	node, _ := tree.Lookup("tutorials/service/springboot")
	if node.Name() != "service-app" {
		t.Errorf("Name() = %q, want service-app", node.Name())
	}
}

func TestResolve_RenameOfMissingProjectIsNoop(t *testing.T) {
	tree, err := Resolve("tutorial", tutorialDecls(), []Rename{{Path: ":metadata:es-sdk", Name: "sdk"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(tree.UnmatchedRenames) != 1 || tree.UnmatchedRenames[0].Path != "metadata:es-sdk" {
		t.Errorf("UnmatchedRenames = %+v", tree.UnmatchedRenames)
	}
}

func TestResolve_InvalidRenameName(t *testing.T) {
	_, err := Resolve("tutorial", tutorialDecls(), []Rename{{Path: "milvus:java", Name: "a:b"}})
	var invalid *InvalidPathError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidPathError", err)
	}
}

func TestResolve_ImplicitAncestors(t *testing.T) {
	decls := []Declaration{
		{Path: "flink:gaia3:parquet-partition", Enabled: true},
		{Path: "flink", Enabled: true},
	}
	tree, err := Resolve("tutorial", decls, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	gaia, ok := tree.Lookup("flink:gaia3")
	if !ok || !gaia.Implicit {
		t.Fatalf("flink:gaia3 = %+v, want implicit container", gaia)
	}
	flink, _ := tree.Lookup("flink")
	if flink.Implicit || !flink.Enabled {
		t.Errorf("flink should be promoted to a target, got %+v", flink)
	}

	want := []string{"flink:gaia3:parquet-partition", "flink"}
	if diff := cmp.Diff(want, tree.EnabledPaths()); diff != "" {
		t.Errorf("EnabledPaths() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_InvalidPath(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"only separator", ":"},
		{"empty segment", "flink::gaia3"},
		{"trailing separator", "flink:"},
		{"quote", `flink"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve("tutorial", []Declaration{{Path: tt.path, Enabled: true, Line: 4}}, nil)
			var invalid *InvalidPathError
			if !errors.As(err, &invalid) {
				t.Errorf("error = %v, want *InvalidPathError", err)
			}
		})
	}
}

func TestResolve_MalformedDisabledDeclarationKept(t *testing.T) {
	decls := []Declaration{
		{Path: "a", Enabled: true, Line: 1},
		{Path: " b::c ", Enabled: false, Line: 2},
	}
	tree, err := Resolve("tutorial", decls, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, tree.EnabledPaths()); diff != "" {
		t.Errorf("EnabledPaths mismatch (-want +got):\n%s", diff)
	}
	want := []Declaration{{Path: "b::c", Enabled: false, Line: 2}}
	if diff := cmp.Diff(want, tree.Disabled); diff != "" {
		t.Errorf("Disabled mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_RenameOfImplicitAncestor(t *testing.T) {
	decls := []Declaration{{Path: "flink:gaia3:parquet-partition", Enabled: true}}
	tree, err := Resolve("tutorial", decls, []Rename{{Path: "flink:gaia3", Name: "gaia"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	node, ok := tree.Lookup("flink:gaia3")
	if !ok || !node.Implicit || node.Name() != "gaia" {
		t.Errorf("flink:gaia3 = %+v, want implicit node named gaia", node)
	}
	if len(tree.UnmatchedRenames) != 0 {
		t.Errorf("UnmatchedRenames = %+v, want none", tree.UnmatchedRenames)
	}
	if diff := cmp.Diff([]string{"flink:gaia3:parquet-partition"}, tree.EnabledPaths()); diff != "" {
		t.Errorf("EnabledPaths mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_WalkDepthFirst(t *testing.T) {
	tree, err := Resolve("tutorial", tutorialDecls(), nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	var visited []string
	var depths []int
	_ = tree.Walk(func(n *ProjectNode, depth int) error {
		visited = append(visited, n.Path)
		depths = append(depths, depth)
		return nil
	})

	if diff := cmp.Diff([]string{"milvus", "milvus:java", "flink"}, visited); diff != "" {
		t.Errorf("Walk order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 0}, depths); diff != "" {
		t.Errorf("Walk depths mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_Children(t *testing.T) {
	tree, _ := Resolve("tutorial", tutorialDecls(), nil)

	root := tree.Children("")
	if len(root) != 2 {
		t.Fatalf("root children = %d, want 2", len(root))
	}
	kids := tree.Children("milvus")
	if len(kids) != 1 || kids[0].Path != "milvus:java" {
		t.Errorf("Children(milvus) = %+v", kids)
	}
	if tree.Children("nope") != nil {
		t.Error("Children of unknown path should be nil")
	}
}

func TestTree_OwnerOf(t *testing.T) {
	tree, _ := Resolve("tutorial", tutorialDecls(), nil)

	tests := []struct {
		file string
		want string
	}{
		{"milvus/java/src/main/java/org/example/Main.java", "milvus:java"},
		{"milvus/python/app.py", "milvus"},
		{"./flink/build.gradle.kts", "flink"},
		{"settings.gradle.kts", ""},
		{"milvusx/readme.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := tree.OwnerOf(tt.file).Path; got != tt.want {
				t.Errorf("OwnerOf(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	decls := tutorialDecls()

	enabled, err := Toggle(decls, ":metadata:es-sdk", true)
	if err != nil {
		t.Fatalf("Toggle(enable) error = %v", err)
	}
	if decls[3].Enabled {
		t.Error("Toggle modified the input slice")
	}
	tree, err := Resolve("tutorial", enabled, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, ok := tree.Lookup("metadata:es-sdk"); !ok {
		t.Error("metadata:es-sdk not a target after enabling")
	}

	disabled, err := Toggle(decls, "milvus:java", false)
	if err != nil {
		t.Fatalf("Toggle(disable) error = %v", err)
	}
	tree, _ = Resolve("tutorial", disabled, nil)
	if _, ok := tree.Lookup("milvus:java"); ok {
		t.Error("milvus:java still present after disabling")
	}

	if _, err := Toggle(decls, "kserve", true); !IsUnknownPath(err) {
		t.Errorf("Toggle(unknown) error = %v, want UnknownPathError", err)
	}
}

func TestDiff(t *testing.T) {
	added, removed := Diff([]string{"milvus", "flink"}, []string{"milvus", "milvus:java"})
	if diff := cmp.Diff([]string{"milvus:java"}, added); diff != "" {
		t.Errorf("added mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"flink"}, removed); diff != "" {
		t.Errorf("removed mismatch:\n%s", diff)
	}
}
