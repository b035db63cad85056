// Package pipeline implements the four-stage query pipeline that turns a
// raw user question into a document-grounded answer.
//
// Each turn runs the stages strictly in order:
//
//	rewrite -> retrieve -> condense -> answer
//
// Rewrite reformulates the question for retrieval using conversation
// history. Retrieve fetches diverse matching passages from the index.
// Condense merges the passages into a single context block. Answer
// produces the final response from the condensed context and history.
//
// The only conditional branch is empty retrieval: when the index returns
// no passages the turn halts with OutcomeNoMatches and the condense and
// answer stages never run. Conversation memory is appended exactly once
// per turn, after the answer stage succeeds, keyed by the original
// pre-rewrite question.
package pipeline
