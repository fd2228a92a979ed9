package opindex

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"github.com/kolah/oclist/internal/model"
)

// Searchable fields of an operation document.
const (
	FieldSummary     = "summary"
	FieldSplitPath   = "splitPath"
	FieldDescription = "description"
	FieldResource    = "resource"
)

// SearchResult is one matching operation.
type SearchResult struct {
	OperationID string
	Score       float64
	// Fields lists the document fields in which a query term matched.
	Fields []string
}

type posting struct {
	doc   int
	field string
	tf    int
}

// SearchIndex is an inverted index over operation metadata.
type SearchIndex struct {
	refs     []string
	postings map[string][]posting
	terms    []string
}

// BuildSearchIndex indexes each operation's summary (prefixed with its
// resource name), verb plus path segments, description and resource name.
// The operation ID is the document reference.
func BuildSearchIndex(ops []model.Operation, resources []Resource) *SearchIndex {
	idx := &SearchIndex{postings: make(map[string][]posting)}
	known := make(map[string]bool, len(resources))
	for _, r := range resources {
		known[r.Name] = true
	}

	for _, op := range ops {
		doc := len(idx.refs)
		idx.refs = append(idx.refs, op.ID)

		resource := ""
		if known[op.Resource()] {
			resource = op.Resource()
		}

		fields := map[string][]string{
			FieldSummary:     Tokenize(resource + " " + op.Summary),
			FieldSplitPath:   Tokenize(op.Verb() + " " + strings.ReplaceAll(op.Path, "/", " ")),
			FieldDescription: Tokenize(op.Description),
			FieldResource:    Tokenize(op.Resource()),
		}
		for _, field := range []string{FieldSummary, FieldSplitPath, FieldDescription, FieldResource} {
			counts := make(map[string]int)
			for _, term := range fields[field] {
				counts[term]++
			}
			for term, tf := range counts {
				idx.postings[term] = append(idx.postings[term], posting{doc: doc, field: field, tf: tf})
			}
		}
	}

	for term := range idx.postings {
		idx.terms = append(idx.terms, term)
	}
	sort.Strings(idx.terms)
	return idx
}

// Len returns the number of indexed operations.
func (idx *SearchIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.refs)
}

// Search matches any query term. A term ending in "*" matches every indexed
// term with that prefix. Results are ordered by score, then operation ID.
func (idx *SearchIndex) Search(query string) []SearchResult {
	if idx == nil || len(idx.refs) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	matched := make(map[int]map[string]bool)

	for _, raw := range strings.Fields(strings.ToLower(query)) {
		for _, term := range idx.expand(raw) {
			list := idx.postings[term]
			docs := make(map[int]bool)
			for _, p := range list {
				docs[p.doc] = true
			}
			idf := idx.idf(len(docs))
			for _, p := range list {
				scores[p.doc] += float64(p.tf) * idf
				if matched[p.doc] == nil {
					matched[p.doc] = make(map[string]bool)
				}
				matched[p.doc][p.field] = true
			}
		}
	}

	results := make([]SearchResult, 0, len(scores))
	for doc, score := range scores {
		var fields []string
		for f := range matched[doc] {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		results = append(results, SearchResult{OperationID: idx.refs[doc], Score: score, Fields: fields})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].OperationID < results[j].OperationID
	})
	return results
}

// expand maps one raw query word to the index terms it matches.
func (idx *SearchIndex) expand(raw string) []string {
	if prefix, ok := strings.CutSuffix(raw, "*"); ok {
		prefix = strings.TrimFunc(prefix, notWordRune)
		if prefix == "" {
			return nil
		}
		start := sort.SearchStrings(idx.terms, prefix)
		var out []string
		for _, t := range idx.terms[start:] {
			if !strings.HasPrefix(t, prefix) {
				break
			}
			out = append(out, t)
		}
		return out
	}
	return Tokenize(raw)
}

func (idx *SearchIndex) idf(df int) float64 {
	n := float64(len(idx.refs))
	return math.Log(1 + math.Abs((n-float64(df)+0.5)/(float64(df)+0.5)))
}

// Tokenize lower-cases text, splits it on anything that is not a letter or
// digit, drops stop words and stems what remains.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), notWordRune)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopWord(w) {
			continue
		}
		tokens = append(tokens, english.Stem(w, false))
	}
	return tokens
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
