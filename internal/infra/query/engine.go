package query

import (
	"strings"

	"vnmcp/internal/domain"
)

// Catalog is the read-only view the engine queries.
type Catalog interface {
	All() []domain.Entry
}

// Engine answers catalog queries. All methods are read-only and safe for
// concurrent use.
type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

func (e *Engine) entries() []domain.Entry {
	if e == nil || e.catalog == nil {
		return nil
	}
	return e.catalog.All()
}

// SearchByText returns entries whose name or first description block contains
// the query, case-insensitively. An empty query matches every entry.
func (e *Engine) SearchByText(query string) []domain.SearchHit {
	needle := strings.ToLower(query)
	hits := []domain.SearchHit{}
	for _, entry := range e.entries() {
		if strings.Contains(strings.ToLower(entry.Name), needle) ||
			strings.Contains(strings.ToLower(entry.SearchDescription()), needle) {
			hits = append(hits, domain.SearchHit{Name: entry.Name, URL: entry.URL})
		}
	}
	return hits
}

// LookupByName prefers an exact case-insensitive name match anywhere in the
// catalog, then falls back to the first entry whose name contains the query.
func (e *Engine) LookupByName(name string) (domain.Entry, error) {
	entries := e.entries()
	needle := strings.ToLower(name)
	for _, entry := range entries {
		if strings.ToLower(entry.Name) == needle {
			return entry, nil
		}
	}
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Name), needle) {
			return entry, nil
		}
	}
	return domain.Entry{}, domain.ErrEntryNotFound
}

// SearchByTags returns entries where every query tag is a substring of at
// least one of the entry's tags.
func (e *Engine) SearchByTags(tags []string) ([]domain.TagHit, error) {
	if len(tags) == 0 {
		return nil, domain.ErrEmptyTags
	}
	wanted := make([]string, len(tags))
	for i, tag := range tags {
		wanted[i] = strings.ToLower(tag)
	}

	hits := []domain.TagHit{}
	for _, entry := range e.entries() {
		if !matchesAll(lowerAll(entry.SearchTags()), wanted) {
			continue
		}
		matched := make([]string, len(wanted))
		copy(matched, wanted)
		hits = append(hits, domain.TagHit{Name: entry.Name, URL: entry.URL, MatchedTags: matched})
	}
	return hits, nil
}

func matchesAll(entryTags, wanted []string) bool {
	for _, want := range wanted {
		found := false
		for _, tag := range entryTags {
			if strings.Contains(tag, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = strings.ToLower(value)
	}
	return out
}
