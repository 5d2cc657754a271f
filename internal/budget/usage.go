package budget

import (
	openai "github.com/sashabaranov/go-openai"
)

// RecordUsage feeds a chat-completion usage block into the budget.
// TotalTokens covers prompt + completion; when a provider omits it
// (some OpenAI-compatible endpoints do), fall back to summing the parts.
func (b *TokenBudget) RecordUsage(u openai.Usage) error {
	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	return b.Update(int64(total))
}
