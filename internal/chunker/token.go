package chunker

import "strings"

// tokensPerWord approximates English tokenization.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
