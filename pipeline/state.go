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

// Stage identifies one step of the query pipeline.
type Stage int

const (
	// StageNone means no stage has completed yet.
	StageNone Stage = iota

	// StageRewrite reformulates the query for retrieval.
	StageRewrite

	// StageRetrieve fetches matching passages from the index.
	StageRetrieve

	// StageCondense merges retrieved passages into one context block.
	StageCondense

	// StageAnswer produces the final answer.
	StageAnswer
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageRewrite:
		return "rewrite"
	case StageRetrieve:
		return "retrieve"
	case StageCondense:
		return "condense"
	case StageAnswer:
		return "answer"
	default:
		return "none"
	}
}

// State carries a single turn through the pipeline. It is created at
// turn start and discarded at turn end; nothing in it survives across
// turns. Each stage reads the fields of earlier stages and writes only
// its own, with Completed marking the last stage that finished.
type State struct {
	// OriginalQuery is the raw user question, exactly as submitted.
	// This is what gets recorded in conversation memory.
	OriginalQuery string

	// Query is the retrieval-facing form of the question. It starts
	// equal to OriginalQuery and is replaced by the rewrite stage.
	Query string

	// History is the rendered conversation transcript as of the
	// previous turn. The in-progress turn is never included.
	History string

	// Passages holds the retrieved passage texts, most relevant first.
	Passages []string

	// Condensed is the single context block built from Passages.
	Condensed string

	// Answer is the final response text.
	Answer string

	// Completed is the last stage that ran to completion.
	Completed Stage
}

// Outcome classifies how a turn ended.
type Outcome int

const (
	// OutcomeAnswered means the full pipeline ran and produced a
	// grounded answer.
	OutcomeAnswered Outcome = iota

	// OutcomeNoMatches means retrieval found no relevant passages and
	// the turn halted early with a rephrase request.
	OutcomeNoMatches
)

// Result is what a completed turn returns to the session controller.
type Result struct {
	Outcome Outcome
	Answer  string
}

// NoMatchesMessage is the user-facing text returned when retrieval
// finds nothing relevant.
const NoMatchesMessage = "I could not find anything relevant to that in the indexed documents. Could you rephrase your question?"
