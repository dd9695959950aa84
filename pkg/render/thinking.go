package render

import (
	"regexp"
	"strings"
)

var thinkingRegexp = regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`)

type Thinking struct {
	Thinking    string
	Response    string
	HasThinking bool
}

// ExtractThinking splits off the first <thinking> span. Without one, the whole
// content is the response.
func ExtractThinking(content string) Thinking {
	m := thinkingRegexp.FindStringSubmatchIndex(content)
	if m == nil {
		return Thinking{Response: content}
	}
	return Thinking{
		Thinking:    strings.TrimSpace(content[m[2]:m[3]]),
		Response:    strings.TrimSpace(content[:m[0]] + content[m[1]:]),
		HasThinking: true,
	}
}
