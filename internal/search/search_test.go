package search

import (
	"sort"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/DreamCats/buildcomp/internal/composer"
)

func tutorialTree(t *testing.T) *composer.Tree {
	t.Helper()
	decls := []composer.Declaration{
		{Path: "milvus", Enabled: true, Line: 11},
		{Path: "flink:load-fits-star-catalog", Line: 12},
		{Path: "flink:gaia3:download-as-parquet", Line: 14},
		{Path: "flink:gaia3:parquet-partition", Line: 15},
		{Path: "flink:fits-to-parquet", Line: 18},
		{Path: "metadata:es-sdk", Line: 23},
		{Path: "metadata:es-ingest-job", Line: 24},
		{Path: "milvus:java", Enabled: true, Line: 26},
		{Path: "flink:sink:clickhouse", Enabled: true, Line: 28},
	}
	tree, err := composer.Resolve("tutorial", decls, []composer.Rename{{Path: ":milvus:java", Name: "java"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return tree
}

func hitPaths(hits []Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Path)
	}
	sort.Strings(out)
	return out
}

func TestBuild(t *testing.T) {
	idx, err := Build(tutorialTree(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer idx.Close()

	// milvus, milvus:java, flink, flink:sink, flink:sink:clickhouse + 6 disabled
	if idx.Len() != 11 {
		t.Errorf("Len() = %d, want 11", idx.Len())
	}
}

func TestIndexTreeClosedIndex(t *testing.T) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		t.Fatalf("NewMemOnly() error = %v", err)
	}
	if err := index.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := indexTree(index, tutorialTree(t)); err == nil {
		t.Error("indexTree() on a closed index succeeded, want error")
	}
}

func TestSearch(t *testing.T) {
	idx, err := Build(tutorialTree(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer idx.Close()

	tests := []struct {
		name  string
		query string
		opts  Options
		want  []string
	}{
		{
			name:  "segment word",
			query: "parquet",
			want:  []string{"flink:fits-to-parquet", "flink:gaia3:download-as-parquet", "flink:gaia3:parquet-partition"},
		},
		{
			name:  "prefix",
			query: "parq",
			want:  []string{"flink:fits-to-parquet", "flink:gaia3:download-as-parquet", "flink:gaia3:parquet-partition"},
		},
		{
			name:  "path form",
			query: "metadata:es-sdk",
			opts:  Options{Status: StatusDisabled},
			want:  []string{"metadata:es-ingest-job", "metadata:es-sdk"},
		},
		{
			name:  "implicit only",
			query: "sink",
			opts:  Options{Status: StatusImplicit},
			want:  []string{"flink:sink"},
		},
		{
			name:  "enabled only",
			query: "flink",
			opts:  Options{Status: StatusEnabled},
			want:  []string{"flink:sink:clickhouse"},
		},
		{
			name:  "no match",
			query: "kserve",
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.Search(tt.query, tt.opts)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, hitPaths(hits)); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestSearchHitFields(t *testing.T) {
	idx, err := Build(tutorialTree(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer idx.Close()

	hits, err := idx.Search("java", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search(java) = %+v, want one hit", hits)
	}
	want := Hit{Path: "milvus:java", Name: "java", Status: StatusEnabled, Dir: "milvus/java", Line: 26}
	got := hits[0]
	got.Score = 0
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("hit mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchLimitAndEmptyQuery(t *testing.T) {
	idx, err := Build(tutorialTree(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer idx.Close()

	hits, err := idx.Search("flink", Options{Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("Search(limit 2) = %d hits", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted by score: %+v", hits)
		}
	}

	hits, err = idx.Search("  ::  ", Options{})
	if err != nil || hits != nil {
		t.Errorf("Search(blank) = %+v, %v, want nil, nil", hits, err)
	}
}
