package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"vnmcp/internal/domain"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONC    Format = "jsonc"
	FormatYAML     Format = "yaml"
	FormatTOML     Format = "toml"
	FormatSnapshot Format = "snapshot"
)

const compressedSuffix = ".zst"

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("catalog")}
}

// DetectFormat resolves the catalog format from the file name. A trailing
// .zst marks zstd-compressed content.
func DetectFormat(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, compressedSuffix)
	name = strings.TrimSuffix(name, compressedSuffix)

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".jsonc":
		return FormatJSONC, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	case ".toml":
		return FormatTOML, compressed, nil
	case ".db", ".bolt", ".bbolt":
		if compressed {
			return "", false, fmt.Errorf("%w: compressed snapshot %s", domain.ErrUnsupportedFormat, path)
		}
		return FormatSnapshot, false, nil
	default:
		return "", false, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
}

// Load reads the whole catalog; any failure rejects the catalog as a whole.
func (l *Loader) Load(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}

	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	if format == FormatSnapshot {
		records, err = readSnapshot(path)
		if err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if compressed {
			data, err = decompress(data)
			if err != nil {
				return nil, err
			}
		}
		records, err = DecodeRecords(format, data)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := decodeEntries(records)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	if len(entries) == 0 {
		l.logger.Warn("catalog is empty; every query will return no results", zap.String("path", path))
	}

	store := NewStore(entries)
	l.logger.Debug("catalog decoded",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Bool("compressed", compressed),
		zap.Int("entries", store.Len()),
	)
	return store, nil
}

// DecodeRecords parses a catalog document into raw records.
func DecodeRecords(format Format, data []byte) ([]map[string]any, error) {
	var doc any
	switch format {
	case FormatJSON:
		if err := decodeJSON(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case FormatJSONC:
		if err := decodeJSON(jsonc.ToJSON(data), &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		doc = table
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	return recordsFrom(doc)
}

// decodeJSON keeps numbers as json.Number so passthrough fields round-trip verbatim.
func decodeJSON(data []byte, out *any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress catalog: %w", err)
	}
	return out, nil
}
