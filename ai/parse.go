package ai

import (
	"strings"

	"github.com/bytedance/sonic"
)

const (
	maxSuggestedTags = 5
	maxTagLength     = 30

	// QuestionTypeOpen is the fallback type when the model strays from the
	// requested JSON shape.
	QuestionTypeOpen = "open"
)

// QuizQuestion is one generated quiz entry.
type QuizQuestion struct {
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer,omitempty"`
}

// ParseQuiz extracts quiz questions from raw model output. It first looks for
// a JSON array anywhere in the text; if none parses, any line containing a
// question mark becomes an open question.
func ParseQuiz(raw string) []QuizQuestion {
	if qs := parseQuizJSON(raw); len(qs) > 0 {
		return qs
	}
	var out []QuizQuestion
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "?") {
			continue
		}
		out = append(out, QuizQuestion{Question: line, Type: QuestionTypeOpen})
	}
	return out
}

func parseQuizJSON(raw string) []QuizQuestion {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	var qs []QuizQuestion
	if err := sonic.UnmarshalString(raw[start:end+1], &qs); err != nil {
		return nil
	}
	for i := range qs {
		if qs[i].Type == "" {
			qs[i].Type = QuestionTypeOpen
		}
	}
	return qs
}

// ParseTags splits raw model output on commas into tag candidates. Candidates
// are trimmed of whitespace and quote/hash decoration; empty or overlong ones
// are dropped, and the result is capped.
func ParseTags(raw string) []string {
	var out []string
	for _, candidate := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(candidate)
		tag = strings.Trim(tag, "\"'`")
		tag = strings.TrimPrefix(tag, "#")
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > maxTagLength {
			continue
		}
		out = append(out, tag)
		if len(out) == maxSuggestedTags {
			break
		}
	}
	return out
}
