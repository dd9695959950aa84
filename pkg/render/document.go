package render

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

var placeholderRegexp = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)

// document is the text flowing through the pipeline. Markup that later stages
// must not touch (rendered math, anchors) is parked in protected and referenced
// from text by a private-use placeholder.
type document struct {
	text      string
	protected []string
}

func newDocument(text string) *document {
	clean := strings.Map(func(r rune) rune {
		if r == placeholderOpen || r == placeholderClose {
			return -1
		}
		return r
	}, text)
	return &document{text: clean}
}

func (d *document) protect(markup string) string {
	d.protected = append(d.protected, markup)
	return string(placeholderOpen) + strconv.Itoa(len(d.protected)-1) + string(placeholderClose)
}

func (d *document) restore() string {
	return replaceSubmatchFunc(placeholderRegexp, d.text, func(groups []string) string {
		idx, err := strconv.Atoi(groups[1])
		if err != nil || idx >= len(d.protected) {
			return ""
		}
		return d.protected[idx]
	})
}

// replaceSubmatchFunc is regexp.ReplaceAllStringFunc with access to the groups.
func replaceSubmatchFunc(re *regexp.Regexp, s string, f func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}
		sb.WriteString(s[last:m[0]])
		sb.WriteString(f(groups))
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}
