package domain

import "encoding/json"

// Entry is one catalog record. Record holds the source record verbatim,
// including fields the catalog does not interpret.
type Entry struct {
	Name        string
	Description []string
	URL         string
	Tags        [][]string
	Record      map[string]any
}

// SearchDescription returns the description block used for text search.
func (e Entry) SearchDescription() string {
	if len(e.Description) == 0 {
		return ""
	}
	return e.Description[0]
}

// SearchTags returns the tag list used for tag search.
func (e Entry) SearchTags() []string {
	if len(e.Tags) == 0 {
		return nil
	}
	return e.Tags[0]
}

// MarshalJSON emits the source record when there is one. Hand-built entries
// use the loader's layout with empty lists in place of nil.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Record != nil {
		return json.Marshal(e.Record)
	}
	description, tags := e.Description, e.Tags
	if description == nil {
		description = []string{}
	}
	if tags == nil {
		tags = [][]string{}
	}
	return json.Marshal(map[string]any{
		"name":        e.Name,
		"description": description,
		"url":         e.URL,
		"tags":        tags,
	})
}

// SearchHit is the projection returned by free-text search.
type SearchHit struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TagHit is the projection returned by tag search. MatchedTags echoes the
// normalized query tags, not the entry's own tags.
type TagHit struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	MatchedTags []string `json:"matched_tags"`
}

// ErrorPayload is the error-shaped success payload used for catalog misses.
type ErrorPayload struct {
	Error string `json:"error"`
}
