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

package pipeline

import "errors"

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrMemoryRequired is returned when conversation memory is not provided.
	ErrMemoryRequired = errors.New("conversation memory required")

	// ErrEmptyQuery is returned when a turn is started with a blank query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyCompletion is returned when the completion backend produces
	// no usable text for a stage that requires it.
	ErrEmptyCompletion = errors.New("completion backend returned empty text")
)
