package util

import (
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractJsonFromText tries to find the largest JSON object/array in the text.
// LLM responses often wrap the payload in markdown fences or surrounding prose.
func ExtractJsonFromText(text string) string {
	// 1. Try to find a markdown code block first
	matches := fencedBlockRe.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// 2. Fallback: find the first '{' or '[' and the last '}' or ']'
	start := firstIndexOfAny(text, "{", "[")
	if start == -1 {
		return text
	}

	end := lastIndexOfAny(text, "}", "]")
	if end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

func firstIndexOfAny(text string, tokens ...string) int {
	best := -1
	for _, tok := range tokens {
		if idx := strings.Index(text, tok); idx != -1 && (best == -1 || idx < best) {
			best = idx
		}
	}
	return best
}

func lastIndexOfAny(text string, tokens ...string) int {
	best := -1
	for _, tok := range tokens {
		if idx := strings.LastIndex(text, tok); idx > best {
			best = idx
		}
	}
	return best
}
