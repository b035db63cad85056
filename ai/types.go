package ai

// SupportedCompletionModels is the fixed menu of generative models the
// completion backend may be configured with. The rest of the system stays
// agnostic to which entry is chosen; only Config.Validate consults this list.
var SupportedCompletionModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"llama3.1:8b",
	"mistral:7b",
	"qwen2.5:3b",
	"qwen2.5:7b",
}

// IsSupportedCompletionModel reports whether model is in the supported menu.
func IsSupportedCompletionModel(model string) bool {
	for _, m := range SupportedCompletionModels {
		if m == model {
			return true
		}
	}
	return false
}
