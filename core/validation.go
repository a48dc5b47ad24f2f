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

package core

import "fmt"

// ValidateRecord checks that a record carries a string value for the
// content field.
//
// Validation rules:
//   - record must not be nil
//   - contentField must be present (ErrMissingField)
//   - contentField must hold a string (ErrMalformedInput)
//
// NOT validated:
//   - Empty content (an empty string is embedded as-is)
//   - Other fields (the field normalizer owns numeric checks)
func ValidateRecord(record *Record, contentField string) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrMalformedInput)
	}

	v, ok := record.Get(contentField)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingField, contentField)
	}

	if _, ok := v.(string); !ok {
		return fmt.Errorf("%w: field %q holds %T, want string", ErrMalformedInput, contentField, v)
	}

	return nil
}

// ContentOf returns the content field of a record that passed ValidateRecord.
func ContentOf(record *Record, contentField string) string {
	v, _ := record.Get(contentField)
	s, _ := v.(string)
	return s
}
