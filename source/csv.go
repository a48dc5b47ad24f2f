package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/recembed/core"
)

// CSV loads records from a delimited file whose first row names the fields.
// Every value is kept as a string; numeric coercion is left to the field normalizer.
type CSV struct {
	opts   Options
	logger *slog.Logger
}

var _ Source = (*CSV)(nil)

// NewCSV creates a tabular source.
func NewCSV(opts Options) *CSV {
	opts.applyDefaults()
	return &CSV{
		opts:   opts,
		logger: slog.Default().With("component", "csv-source"),
	}
}

// Load reads every row of the file at path.
func (s *CSV) Load(ctx context.Context, path string) ([]*core.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := s.Read(ctx, f)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded records", "path", path, "records", len(records))
	return records, nil
}

// Read parses rows from r.
func (s *CSV) Read(ctx context.Context, r io.Reader) ([]*core.Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = s.opts.Comma
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", core.ErrMalformedInput)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	fields, err := headerFields(header)
	if err != nil {
		return nil, err
	}

	hasContent := false
	for _, f := range fields {
		if f == s.opts.ContentField {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return nil, fmt.Errorf("%w: header has no %q column", core.ErrMissingField, s.opts.ContentField)
	}

	var records []*core.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
		}

		record := core.NewRecord(len(fields))
		for i, name := range fields {
			record.Set(name, row[i])
		}
		records = append(records, record)
	}

	return records, nil
}

// headerFields copies the header row, stripping a UTF-8 byte order mark and
// rejecting duplicate names.
func headerFields(header []string) ([]string, error) {
	fields := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrMalformedInput, name)
		}
		seen[name] = true
		fields[i] = name
	}
	return fields, nil
}
