package security

import (
	"strings"
)

const maxQuestionLength = 2000

// PromptGuard screens incoming questions before they reach the LLM:
// length bounds plus a keyword check for sensitive-data fishing.
type PromptGuard struct {
	piiKeywords []string
}

func NewPromptGuard(piiKeywords []string) *PromptGuard {
	lower := make([]string, len(piiKeywords))
	for i, k := range piiKeywords {
		lower[i] = strings.ToLower(k)
	}
	return &PromptGuard{piiKeywords: lower}
}

// Check returns an error message when the question must be rejected, or ""
// when it may proceed.
func (g *PromptGuard) Check(question string) string {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "question is required"
	}
	if len(trimmed) > maxQuestionLength {
		return "question is too long"
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range g.piiKeywords {
		if strings.Contains(lower, kw) {
			return "question touches sensitive data: " + kw
		}
	}
	return ""
}
