// Package memory holds per-conversation history: the ordered list of
// question/answer turns a session has accumulated. History is kept
// in-process and feeds the query pipeline's rewrite and answer stages.
package memory
