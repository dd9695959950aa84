package render

import (
	"regexp"
	"strings"
)

// CodeBlock is the single fenced block pulled out of a message.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

const defaultCodeLanguage = "text"

var codeFenceRegexp = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)\\n```")

// ExtractCode removes the first fenced block from text. The text before and
// after the fence is trimmed and joined with a newline.
func ExtractCode(text string) (string, *CodeBlock) {
	m := codeFenceRegexp.FindStringSubmatchIndex(text)
	if m == nil {
		return text, nil
	}

	block := &CodeBlock{
		Language: defaultCodeLanguage,
		Code:     strings.TrimSpace(text[m[4]:m[5]]),
	}
	if m[2] >= 0 {
		block.Language = text[m[2]:m[3]]
	}

	var parts []string
	for _, part := range []string{text[:m[0]], text[m[1]:]} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n"), block
}
