// Package router selects an agent for a free-text request. Rule scoring
// is a pure function over the agent's declared triggers; the llm and
// hybrid strategies additionally consult the model service.
package router

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// matchKeyword reports whether the input contains the keyword as a
// whole word, case-insensitively.
func matchKeyword(input, keyword string) bool {
	in := strings.ToLower(input)
	kw := strings.ToLower(keyword)

	idx := 0
	for {
		i := strings.Index(in[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		if boundaryAt(in, start-1) && boundaryAt(in, end) {
			return true
		}
		idx = start + 1
	}
}

// boundaryAt reports whether position i in s is outside a word.
func boundaryAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}

// RuleScore is the outcome of scoring one agent's triggers against input.
type RuleScore struct {
	// Confidence is the scaled score capped at 100.
	Confidence int
	// Matched lists the keywords and patterns that hit.
	Matched []string
}

// ScoreTriggers scores input against one agent's declared triggers.
// Each matched keyword contributes 10 points and each matched pattern 15,
// scaled by 1 + priority/200. Invalid patterns are skipped; they are
// rejected earlier, at definition load time.
func ScoreTriggers(input string, keywords, patterns []string, priority int) RuleScore {
	var score float64
	var matched []string

	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if matchKeyword(input, kw) {
			score += 10
			matched = append(matched, fmt.Sprintf("keyword:%s", kw))
		}
	}

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if re.MatchString(input) {
			score += 15
			matched = append(matched, fmt.Sprintf("pattern:%s", p))
		}
	}

	score *= 1 + float64(priority)/200
	confidence := int(math.Round(score))
	if confidence > 100 {
		confidence = 100
	}

	return RuleScore{Confidence: confidence, Matched: matched}
}
