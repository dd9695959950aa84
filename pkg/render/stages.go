package render

import (
	"regexp"
	"strings"
	"unicode"
)

// Stage is one step of the formatting pipeline. Each stage documents the shape
// it expects from the stages before it.
type Stage struct {
	Name  string
	Apply func(d *document)
}

func textStage(name string, f func(string) string) Stage {
	return Stage{Name: name, Apply: func(d *document) { d.text = f(d.text) }}
}

var literalStripper = strings.NewReplacer("_", "", "`", "")

// stripLiterals runs after code extraction, so the only backticks left are
// stray inline-code markers.
func stripLiterals(s string) string {
	return literalStripper.Replace(s)
}

var headingRegexp = regexp.MustCompile(`(?m)^[ \t]*#{1,3}[ \t].*(?:\n|$)`)

func stripHeadings(s string) string {
	return headingRegexp.ReplaceAllString(s, "")
}

var (
	bulletMarkerRegexp = regexp.MustCompile(`(\s)([*•])\s`)
	numberMarkerRegexp = regexp.MustCompile(`(\s)(\d+)[.)]\s`)
	letterMarkerRegexp = regexp.MustCompile(`(\s)([a-zA-Z])[.)]\s`)
	romanMarkerRegexp  = regexp.MustCompile(`(?i)(\s)(M{0,4}(?:CM|CD|D?C{0,3})(?:XC|XL|L?X{0,3})(?:IX|IV|V?I{0,3}))\.\s`)
)

// breakListMarkers puts packed list items on their own line. Headings are gone
// by now so a leading '#' can no longer be mistaken for a marker.
func breakListMarkers(s string) string {
	s = bulletMarkerRegexp.ReplaceAllString(s, "$1<br>$2 ")
	s = numberMarkerRegexp.ReplaceAllString(s, "$1<br>$2. ")
	s = letterMarkerRegexp.ReplaceAllString(s, "$1<br>$2. ")
	return replaceSubmatchFunc(romanMarkerRegexp, s, func(g []string) string {
		if g[2] == "" {
			return g[0]
		}
		return g[1] + "<br>" + g[2] + ". "
	})
}

var (
	punctuationRegexp = regexp.MustCompile(`([.,:?!'"”’)\]}])([a-zA-Z0-9])`)
	bareURLRegexp     = regexp.MustCompile(`\bhttps?://[^\s)<>\]\x{E000}\x{E001}]+`)
)

// spacePunctuation adds the missing space after punctuation glued to the next
// word. "..." is covered since only its last dot touches the word. Numbers
// like 3.14 or 10:30 and anything inside a URL are left alone.
func spacePunctuation(s string) string {
	urls := bareURLRegexp.FindAllStringIndex(s, -1)
	inURL := func(pos int) bool {
		for _, u := range urls {
			if pos >= u[0] && pos < u[1] {
				return true
			}
		}
		return false
	}

	matches := punctuationRegexp.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		punctEnd := m[3]
		next := s[m[4]:m[5]]
		sb.WriteString(s[last:punctEnd])
		last = punctEnd
		if inURL(m[0]) {
			continue
		}
		if m[2] > 0 && isDigitByte(s[m[2]-1]) && unicode.IsDigit(rune(next[0])) {
			continue
		}
		sb.WriteString(" ")
	}
	sb.WriteString(s[last:])
	return sb.String()
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

var (
	stepMarkerRegexp = regexp.MustCompile(`(?i)(\s)(Cách|Bước)\s+([0-9a-zA-Z]+)[.:]\s*`)
	colonListRegexp  = regexp.MustCompile(`(:\s+)(\d+\.|-\s|\*\s)`)
)

func breakStepMarkers(s string) string {
	s = stepMarkerRegexp.ReplaceAllString(s, "$1<br>$2 $3. ")
	return colonListRegexp.ReplaceAllString(s, "$1<br>$2")
}

// substituteArrows feeds the math renderer. Arrows outside math are turned
// into a plain glyph after math rendering.
func substituteArrows(s string) string {
	return strings.ReplaceAll(s, "->", `\rightarrow`)
}

var (
	strongRegexp = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emRegexp     = regexp.MustCompile(`(^|\s)\*([^*]+?)\*(\s|$|[,.;:!?])`)
)

// convertEmphasis only treats single asterisks as emphasis when they hug a
// word boundary, so "2 * 3 * 4" stays arithmetic. The trailing boundary is
// consumed by the match, hence the loop for adjacent spans.
func convertEmphasis(s string) string {
	s = strongRegexp.ReplaceAllString(s, "<strong>$1</strong>")
	for {
		next := emRegexp.ReplaceAllString(s, "$1<em>$2</em>$3")
		if next == s {
			return s
		}
		s = next
	}
}

var keywordRegexp = regexp.MustCompile(`(?i)(\n|^)(Mở đầu|Kết luận|Chú thích|Ghi chú|Lưu ý)`)

func breakKeywords(s string) string {
	return keywordRegexp.ReplaceAllString(s, "<br>$2")
}

var residualStripper = strings.NewReplacer("*", "", "{", "", "}", "")

// stripResiduals runs after math is parked behind placeholders, so formula
// braces are not affected.
func stripResiduals(s string) string {
	return residualStripper.Replace(s)
}

var (
	brAfterNewlineRegexp = regexp.MustCompile(`\n[ \t]*<br>`)
	edgeBreaksRegexp     = regexp.MustCompile(`^(?:\s*<br>)+|(?:<br>\s*)+$`)
)

// lineBreaks turns the remaining newlines into <br>. A newline directly
// followed by an injected <br> only counts once.
func lineBreaks(s string) string {
	s = brAfterNewlineRegexp.ReplaceAllString(strings.TrimSpace(s), "<br>")
	s = strings.ReplaceAll(s, "\n", "<br>")
	return edgeBreaksRegexp.ReplaceAllString(s, "")
}
