// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/poiesic/recembed/core"
)

// Default field names shared by the sources.
const (
	DefaultContentField = "content"
	DefaultDataField    = "data"
)

// Source loads an ordered sequence of records from a file.
type Source interface {
	// Load reads every record from path in file order.
	// Returns core.ErrMalformedInput when the file cannot be parsed in the
	// expected shape and core.ErrMissingField when an expected field is absent.
	Load(ctx context.Context, path string) ([]*core.Record, error)
}

// Options configures the record sources.
type Options struct {
	// ContentField names the field holding the text to embed.
	// Default: "content"
	ContentField string

	// DataField names the top-level JSON field holding the entry array.
	// Default: "data"
	DataField string

	// Comma is the CSV field delimiter.
	// Default: ','
	Comma rune
}

// DefaultOptions returns Options with the standard field names.
func DefaultOptions() Options {
	return Options{
		ContentField: DefaultContentField,
		DataField:    DefaultDataField,
		Comma:        ',',
	}
}

// WithDefaults returns a copy of o with zero fields set to their defaults.
func (o Options) WithDefaults() Options {
	o.applyDefaults()
	return o
}

func (o *Options) applyDefaults() {
	if o.ContentField == "" {
		o.ContentField = DefaultContentField
	}
	if o.DataField == "" {
		o.DataField = DefaultDataField
	}
	if o.Comma == 0 {
		o.Comma = ','
	}
}

// Extension returns the text after the last dot in the file name, or the
// whole base name when it has no dot.
func Extension(path string) string {
	base := filepath.Base(path)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[i+1:]
	}
	return base
}

// ForPath selects a source by file extension. Only "csv" and "json" are
// supported and the match is case-sensitive. No file I/O is performed.
func ForPath(path string, opts Options) (Source, error) {
	switch ext := Extension(path); ext {
	case "csv":
		return NewCSV(opts), nil
	case "json":
		return NewJSON(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (only csv and json are supported)", core.ErrUnsupportedFileType, ext)
	}
}
