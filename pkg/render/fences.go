package render

import "strings"

// Segment is a run of answer text, either prose or a fenced code block
type Segment struct {
	Code     bool
	Language string
	Text     string
}

// SplitFences cuts markdown text into prose and ``` fenced code segments. An
// unterminated fence, common while an answer is still streaming, runs to the
// end of the text.
func SplitFences(content string) []Segment {
	var segments []Segment
	var current strings.Builder
	inCode := false
	language := ""

	flush := func() {
		if current.Len() == 0 && !inCode {
			return
		}
		text := current.String()
		if inCode {
			text = strings.TrimSuffix(text, "\n")
		}
		segments = append(segments, Segment{Code: inCode, Language: language, Text: text})
		current.Reset()
	}

	lines := strings.SplitAfter(content, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			flush()
			if inCode {
				inCode = false
				language = ""
			} else {
				inCode = true
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		current.WriteString(line)
	}
	if current.Len() > 0 || inCode {
		flush()
	}
	return segments
}
