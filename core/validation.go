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

import (
	"fmt"
	"time"
)

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - DocumentName must not be empty
//   - Seq must not be negative
//
// NOT validated (populated later):
//   - Vector (can be empty until the index builder embeds the passage)
//   - ID (derived from content by the repository)
func ValidatePassage(passage *Passage) error {
	if passage == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if passage.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyContent)
	}

	if passage.DocumentName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyDocumentName)
	}

	if passage.Seq < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrNegativeSeq)
	}

	return nil
}

// ValidateTurn validates a Turn according to domain rules.
//
// Validation rules:
//   - Question must not be empty
//   - Asked must not be in the future
//
// The answer may be empty: a turn that ended on the no-match branch
// stores the sentinel message chosen by the caller.
func ValidateTurn(turn *Turn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if turn.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyQuestion)
	}

	if !IsValidTimestamp(turn.Asked) {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
