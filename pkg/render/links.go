package render

import (
	"html"
	"regexp"
	"strings"
)

// URLs stop at placeholders so earlier protected markup is never pulled into a link.
var markdownLinkRegexp = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)\x{E000}\x{E001}]+)\)`)

func anchor(url, text string) string {
	return `<a href="` + html.EscapeString(url) + `" target="_blank" rel="noopener noreferrer">` + text + `</a>`
}

// convertLinks parks markdown links first so the bare URL pass cannot match
// the URL inside them a second time.
func convertLinks(d *document) {
	d.text = replaceSubmatchFunc(markdownLinkRegexp, d.text, func(g []string) string {
		return d.protect(anchor(g[2], g[1]))
	})
	d.text = bareURLRegexp.ReplaceAllStringFunc(d.text, func(url string) string {
		trimmed := strings.TrimRight(url, ".,;:!?'\"")
		return d.protect(anchor(trimmed, html.EscapeString(trimmed))) + url[len(trimmed):]
	})
}
