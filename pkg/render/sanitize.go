package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var mathMLElements = []string{
	"math", "mrow", "mi", "mn", "mo", "mtext", "mspace", "msup", "msub", "msubsup",
	"mfrac", "msqrt", "mroot", "mover", "munder", "munderover", "mstyle",
	"mtable", "mtr", "mtd",
}

// NewTextPolicy allows exactly what the pipeline emits. Links are limited to
// http(s) and always open in a new tab without a referrer.
func NewTextPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "strong", "em", "b", "i", "p", "span", "div", "code", "pre")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^math-(display|inline|error)$`)).OnElements("div", "span", "code")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	p.AllowNoAttrs().OnElements(mathMLElements...)
	p.AllowAttrs("xmlns").Matching(regexp.MustCompile(`^http://www\.w3\.org/1998/Math/MathML$`)).OnElements("math")
	p.AllowAttrs("display").Matching(regexp.MustCompile(`^(block|inline)$`)).OnElements("math")
	p.AllowAttrs("mathvariant").Matching(regexp.MustCompile(`^[a-z-]+$`)).OnElements("mi", "mstyle")
	p.AllowAttrs("width").Matching(regexp.MustCompile(`^-?[0-9.]+em$`)).OnElements("mspace")
	p.AllowAttrs("linebreak").Matching(regexp.MustCompile(`^newline$`)).OnElements("mspace")
	p.AllowAttrs("accent").Matching(regexp.MustCompile(`^true$`)).OnElements("mover")
	p.AllowAttrs("columnalign").Matching(regexp.MustCompile(`^(left|center|right)( (left|center|right))*$`)).OnElements("mtable")
	return p
}

// NewMediaPolicy covers attachment previews, whose sources are handle URLs.
func NewMediaPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "span")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^attachment-[a-z]+$`)).OnElements("div", "span", "img", "video", "audio")
	p.AllowAttrs("src").OnElements("img", "video", "audio")
	p.AllowAttrs("alt", "title").OnElements("img")
	p.AllowAttrs("controls").OnElements("video", "audio")
	p.AllowURLSchemes("http", "https", "blob")
	p.RequireParseableURLs(true)
	return p
}
