package pipeline

import (
	"fmt"
	"strings"
)

const rewriteSystemPrompt = `You rewrite user questions into standalone search queries for a document retrieval system.

Rules:
- Preserve every technical term, proper noun, and domain-specific word from the question EXACTLY as written. Never substitute synonyms or invent terminology; the index matches on the literal vocabulary of the source documents.
- Resolve pronouns and elliptical references ("it", "that", "what about...") using the conversation history, so the query stands alone.
- Keep the query short and declarative. Do not answer the question.
- Output ONLY the rewritten query. No preamble, no quotes, no explanation.`

const rewritePromptTemplate = `Conversation history:
%s

Question: %s

Rewritten query:`

const condenseSystemPrompt = `You condense retrieved document passages into a single context block for a downstream answering system.

Rules:
- Extract only the content relevant to the query; drop everything else.
- Merge overlapping or complementary passages into one coherent account rather than concatenating them.
- Never introduce facts that are not present in the passages. No extrapolation, no outside knowledge.
- Output is consumed by a machine, not a person: use terse bullet points of the form "- fact", one fact per line, no prose, no commentary.
- If none of the passages bear on the query, output the single line "- no relevant information".`

const condensePromptTemplate = `Query: %s

Passages:
%s

Condensed context:`

const answerSystemPrompt = `You answer user questions using ONLY the provided context and conversation history.

Rules:
- If the question is a pure greeting or social pleasantry (for example "hello", "hi", "thanks"), reply with a brief friendly acknowledgment and ignore the context.
- Otherwise answer strictly from the context and history. If they do not contain the answer, say you do not know; never invent information.
- Be concise. A few sentences at most, no headings, no restating the question.`

const answerPromptTemplate = `Conversation history:
%s

Context:
%s

Question: %s

Answer:`

func renderRewritePrompt(state *State) string {
	return fmt.Sprintf(rewritePromptTemplate, historyOrNone(state.History), state.OriginalQuery)
}

func renderCondensePrompt(state *State) string {
	var b strings.Builder
	for i, passage := range state.Passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, passage)
	}
	return fmt.Sprintf(condensePromptTemplate, state.Query, b.String())
}

func renderAnswerPrompt(state *State) string {
	return fmt.Sprintf(answerPromptTemplate, historyOrNone(state.History), state.Condensed, state.Query)
}

func historyOrNone(history string) string {
	if history == "" {
		return "(none)"
	}
	return history
}
