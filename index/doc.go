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

// Package index provides the retrieval index over uploaded documents.
//
// The Builder chunks documents into fixed-size overlapping passages, embeds
// them concurrently on a worker pool, and stores them in a passage repository.
// The index is built once per session and is read-only afterwards.
//
// The Retriever embeds a query, gathers candidate passages by vector
// similarity, and re-ranks them with maximal marginal relevance (MMR) to
// trade pure similarity for coverage across distinct passages.
package index
