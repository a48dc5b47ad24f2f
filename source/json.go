package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/recembed/core"
)

// JSON loads records from a document whose top-level object holds an array
// of homogeneous entry objects under the configured data field.
type JSON struct {
	opts   Options
	logger *slog.Logger
}

var _ Source = (*JSON)(nil)

// NewJSON creates a hierarchical source.
func NewJSON(opts Options) *JSON {
	opts.applyDefaults()
	return &JSON{
		opts:   opts,
		logger: slog.Default().With("component", "json-source"),
	}
}

// Load reads every entry of the document at path.
func (s *JSON) Load(ctx context.Context, path string) ([]*core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	records, err := s.Parse(ctx, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded records", "path", path, "records", len(records))
	return records, nil
}

// Parse decodes the document once, validates its structure and extracts the
// entries in document order.
func (s *JSON) Parse(ctx context.Context, data []byte) ([]*core.Record, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", core.ErrMalformedInput)
	}

	raw, ok := doc[s.opts.DataField]
	if !ok {
		return nil, fmt.Errorf("%w: document has no %q field", core.ErrMissingField, s.opts.DataField)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return nil, fmt.Errorf("%w: field %q is not an array", core.ErrMalformedInput, s.opts.DataField)
	}

	records := make([]*core.Record, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := decodeObject(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := core.ValidateRecord(record, s.opts.ContentField); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// decodeObject reads one JSON object into a record, keeping key order.
// Numbers become float64; other values are passed through as decoded.
func decodeObject(raw json.RawMessage) (*core.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: entry is not an object", core.ErrMalformedInput)
	}

	record := core.NewRecord(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", core.ErrMalformedInput, tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", core.ErrMalformedInput, key, err)
		}
		if n, ok := v.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %w", core.ErrMalformedInput, key, err)
			}
			v = f
		}
		record.Set(key, v)
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	return record, nil
}
