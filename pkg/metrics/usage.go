package metrics

// TokenUsage reports what one rerank call consumed.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// NewTokenUsage returns nil when the provider reported nothing. A missing
// total is the sum of its parts.
func NewTokenUsage(prompt, completion, total int) *TokenUsage {
	if prompt <= 0 && completion <= 0 && total <= 0 {
		return nil
	}
	if total <= 0 {
		total = max(prompt, 0) + max(completion, 0)
	}
	return &TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}
