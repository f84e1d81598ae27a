package keyword

import (
	"regexp"
	"strings"
)

var sentenceEndings = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of '.', '!' and '?'. Pieces are trimmed
// and empty pieces are dropped.
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sentences []string
	for _, part := range sentenceEndings.Split(text, -1) {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
