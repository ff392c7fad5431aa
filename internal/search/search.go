// Package search indexes the project declarations of a resolved tree,
// enabled and disabled alike, so that a module can be found by any part of
// its path before it is re-enabled.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/DreamCats/buildcomp/internal/composer"
)

// Declaration statuses.
const (
	StatusEnabled  = "enabled"
	StatusImplicit = "implicit"
	StatusDisabled = "disabled"
)

// doc is what gets indexed for one declaration.
type doc struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Terms  string `json:"terms"`
	Status string `json:"status"`
	Dir    string `json:"dir"`
	Line   int    `json:"line"`
}

// Hit is one search result.
type Hit struct {
	Path   string  `json:"path"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Dir    string  `json:"dir"`
	Line   int     `json:"line,omitempty"`
	Score  float64 `json:"score"`
}

// Options narrows a search.
type Options struct {
	Limit int
	// Status keeps only hits with this status when set.
	Status string
}

// Index is an in-memory declaration index.
type Index struct {
	index bleve.Index
	size  int
}

// Build indexes every node and disabled declaration of tree.
func Build(tree *composer.Tree) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	size, err := indexTree(index, tree)
	if err != nil {
		index.Close()
		return nil, err
	}
	return &Index{index: index, size: size}, nil
}

func indexTree(index bleve.Index, tree *composer.Tree) (int, error) {
	batch := index.NewBatch()
	for _, n := range tree.Nodes() {
		status := StatusEnabled
		if n.Implicit {
			status = StatusImplicit
		}
		d := doc{Path: n.Path, Name: n.Name(), Status: status, Dir: n.Dir, Line: n.Line}
		d.Terms = terms(d.Path, d.Name)
		if err := batch.Index(status+":"+n.Path, d); err != nil {
			return 0, fmt.Errorf("index %s: %w", n.Path, err)
		}
	}
	for i, decl := range tree.Disabled {
		d := doc{
			Path:   decl.Path,
			Name:   composer.LeafName(decl.Path),
			Status: StatusDisabled,
			Dir:    composer.ProjectDir(decl.Path),
			Line:   decl.Line,
		}
		d.Terms = terms(d.Path, d.Name)
		if err := batch.Index(fmt.Sprintf("%s:%d:%s", StatusDisabled, i, decl.Path), d); err != nil {
			return 0, fmt.Errorf("index %s: %w", decl.Path, err)
		}
	}
	size := batch.Size()
	if err := index.Batch(batch); err != nil {
		return 0, fmt.Errorf("index declarations: %w", err)
	}
	return size, nil
}

// Len returns the number of indexed declarations.
func (i *Index) Len() int {
	return i.size
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Search matches q against path segments and display names. Every word of
// q also matches as a prefix, so "parq" finds parquet modules.
func (i *Index) Search(q string, opts Options) ([]Hit, error) {
	words := strings.Fields(strings.ToLower(splitPath(q)))
	if len(words) == 0 {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	termsQuery := bleve.NewMatchQuery(strings.Join(words, " "))
	termsQuery.SetField("terms")
	nameQuery := bleve.NewMatchQuery(strings.Join(words, " "))
	nameQuery.SetField("name")
	nameQuery.SetBoost(2.0)

	queries := []blevequery.Query{termsQuery, nameQuery}
	for _, w := range words {
		prefix := bleve.NewPrefixQuery(w)
		prefix.SetField("terms")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}
	var query blevequery.Query = bleve.NewDisjunctionQuery(queries...)
	if opts.Status != "" {
		status := bleve.NewTermQuery(opts.Status)
		status.SetField("status")
		query = bleve.NewConjunctionQuery(query, status)
	}

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Fields = []string{"path", "name", "status", "dir", "line"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search declarations: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		hit.Path, _ = h.Fields["path"].(string)
		hit.Name, _ = h.Fields["name"].(string)
		hit.Status, _ = h.Fields["status"].(string)
		hit.Dir, _ = h.Fields["dir"].(string)
		if line, ok := h.Fields["line"].(float64); ok {
			hit.Line = int(line)
		}
		hits = append(hits, hit)
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Path < hits[b].Path
	})
	return hits, nil
}

// splitPath turns path delimiters and hyphens into spaces.
func splitPath(s string) string {
	return strings.NewReplacer(":", " ", "/", " ", "-", " ", "_", " ", ".", " ").Replace(s)
}

func terms(path, name string) string {
	return strings.ToLower(splitPath(path + " " + name))
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "standard"
	indexMapping.DefaultField = "terms"

	docMapping := bleve.NewDocumentMapping()

	termsField := bleve.NewTextFieldMapping()
	termsField.Store = false
	termsField.Index = true
	docMapping.AddFieldMappingsAt("terms", termsField)

	nameField := bleve.NewTextFieldMapping()
	nameField.Store = true
	nameField.Index = true
	nameField.Analyzer = "standard"
	docMapping.AddFieldMappingsAt("name", nameField)

	for _, keyword := range []string{"path", "status", "dir"} {
		field := bleve.NewTextFieldMapping()
		field.Store = true
		field.Index = true
		field.Analyzer = "keyword"
		docMapping.AddFieldMappingsAt(keyword, field)
	}

	lineField := bleve.NewNumericFieldMapping()
	lineField.Store = true
	lineField.Index = false
	docMapping.AddFieldMappingsAt("line", lineField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
