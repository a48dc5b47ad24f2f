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

package normalize

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/recembed/core"
)

// Stats holds the observed range of one numeric field.
type Stats struct {
	Field string
	Min   float64
	Max   float64
}

// Fields rescales every numeric field of records to [0,1] in place using
// (value - min) / (max - min). A field is numeric when its value in the first
// record is a number or a string that parses as a finite number. Fields named
// in skip are never treated as numeric.
//
// All records are checked and min/max computed before any record is mutated.
// A numeric field that is missing or non-numeric in a later record fails with
// core.ErrNormalization and leaves every record untouched. A field whose
// values are all equal maps to 0.0.
//
// The returned stats are ordered as the fields appear in the first record.
func Fields(records []*core.Record, skip ...string) ([]Stats, error) {
	if len(records) == 0 {
		return nil, nil
	}

	numeric := numericFields(records[0], skip)
	if len(numeric) == 0 {
		return nil, nil
	}

	// values[f][i] is the pristine value of numeric[f] in records[i]
	values := make([][]float64, len(numeric))
	stats := make([]Stats, len(numeric))
	for f, field := range numeric {
		col := make([]float64, len(records))
		for i, record := range records {
			raw, ok := record.Get(field)
			if !ok {
				return nil, fmt.Errorf("%w: field %q missing in record %d", core.ErrNormalization, field, i)
			}
			n, ok := toNumber(raw)
			if !ok {
				return nil, fmt.Errorf("%w: field %q in record %d is %v, want a number", core.ErrNormalization, field, i, raw)
			}
			col[i] = n
		}
		values[f] = col
		stats[f] = Stats{Field: field, Min: slices.Min(col), Max: slices.Max(col)}
	}

	for f, st := range stats {
		for i, record := range records {
			record.Set(st.Field, scale(values[f][i], st.Min, st.Max))
		}
	}

	return stats, nil
}

// scale maps v from [lo, hi] onto [0, 1]. A span that overflows float64 is
// scaled in halves.
func scale(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	span := hi - lo
	if math.IsInf(span, 0) {
		return (v/2 - lo/2) / (hi/2 - lo/2)
	}
	return (v - lo) / span
}

func numericFields(first *core.Record, skip []string) []string {
	var out []string
	for _, field := range first.Fields() {
		if slices.Contains(skip, field) {
			continue
		}
		v, _ := first.Get(field)
		if _, ok := toNumber(v); ok {
			out = append(out, field)
		}
	}
	return out
}

// toNumber coerces a loaded value to a finite float64.
func toNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
