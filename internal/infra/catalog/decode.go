package catalog

import (
	"errors"
	"fmt"
	"strings"

	"vnmcp/internal/domain"
)

// Field aliases accepted from scraper output.
var (
	descriptionKeys = []string{"description", "vndesc"}
	tagKeys         = []string{"tags", "vntags"}
)

func recordsFrom(doc any) ([]map[string]any, error) {
	switch value := doc.(type) {
	case []any:
		records := make([]map[string]any, 0, len(value))
		for i, item := range value {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("entries[%d]: expected object, got %T", i, item)
			}
			records = append(records, record)
		}
		return records, nil
	case []map[string]any:
		return value, nil
	case map[string]any:
		entries, ok := value["entries"]
		if !ok {
			return nil, errors.New("catalog document must be a list of entries or contain an entries list")
		}
		return recordsFrom(entries)
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("catalog document must be a list of entries, got %T", doc)
	}
}

func decodeEntries(records []map[string]any) ([]domain.Entry, error) {
	entries := make([]domain.Entry, 0, len(records))
	var validationErrors []string
	for i, record := range records {
		entry, errs := decodeEntry(i, record)
		if len(errs) > 0 {
			validationErrors = append(validationErrors, errs...)
			continue
		}
		entries = append(entries, entry)
	}
	if len(validationErrors) > 0 {
		return nil, errors.New(strings.Join(validationErrors, "; "))
	}
	return entries, nil
}

func decodeEntry(index int, record map[string]any) (domain.Entry, []string) {
	var errs []string

	name, err := stringField(record, "name")
	if err != nil {
		errs = append(errs, fmt.Sprintf("entries[%d]: %v", index, err))
	}
	url, err := stringField(record, "url")
	if err != nil {
		errs = append(errs, fmt.Sprintf("entries[%d]: %v", index, err))
	}

	var description []string
	if key, raw, ok := lookupAlias(record, descriptionKeys); !ok {
		errs = append(errs, fmt.Sprintf("entries[%d]: description is required", index))
	} else if description, err = textBlocks(raw); err != nil {
		errs = append(errs, fmt.Sprintf("entries[%d]: %s: %v", index, key, err))
	}

	var tags [][]string
	if key, raw, ok := lookupAlias(record, tagKeys); !ok {
		errs = append(errs, fmt.Sprintf("entries[%d]: tags is required", index))
	} else if tags, err = tagLists(raw); err != nil {
		errs = append(errs, fmt.Sprintf("entries[%d]: %s: %v", index, key, err))
	}

	if len(errs) > 0 {
		return domain.Entry{}, errs
	}
	return domain.Entry{
		Name:        name,
		Description: description,
		URL:         url,
		Tags:        tags,
		Record:      record,
	}, nil
}

func stringField(record map[string]any, key string) (string, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, raw)
	}
	return value, nil
}

func lookupAlias(record map[string]any, keys []string) (string, any, bool) {
	for _, key := range keys {
		if raw, ok := record[key]; ok && raw != nil {
			return key, raw, true
		}
	}
	return "", nil, false
}

// textBlocks accepts a single string as a one-element sequence.
func textBlocks(raw any) ([]string, error) {
	switch value := raw.(type) {
	case string:
		return []string{value}, nil
	case []string:
		return value, nil
	case []any:
		return stringList(value)
	default:
		return nil, fmt.Errorf("expected string or list of strings, got %T", raw)
	}
}

// tagLists accepts either a list of tag lists or a flat list, which is
// treated as a single tag list.
func tagLists(raw any) ([][]string, error) {
	switch value := raw.(type) {
	case [][]string:
		return value, nil
	case []string:
		return [][]string{value}, nil
	case []any:
		if len(value) == 0 {
			return [][]string{}, nil
		}
		if _, flat := value[0].(string); flat {
			list, err := stringList(value)
			if err != nil {
				return nil, err
			}
			return [][]string{list}, nil
		}
		lists := make([][]string, 0, len(value))
		for i, item := range value {
			inner, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("[%d]: expected list of strings, got %T", i, item)
			}
			list, err := stringList(inner)
			if err != nil {
				return nil, fmt.Errorf("[%d]%v", i, err)
			}
			lists = append(lists, list)
		}
		return lists, nil
	default:
		return nil, fmt.Errorf("expected list of tag lists, got %T", raw)
	}
}

func stringList(values []any) ([]string, error) {
	out := make([]string, 0, len(values))
	for i, item := range values {
		text, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected string, got %T", i, item)
		}
		out = append(out, text)
	}
	return out, nil
}
