package openai

import "errors"

// ErrNoChoices is returned when the completion backend responds without
// any generated choices.
var ErrNoChoices = errors.New("completion backend returned no choices")
