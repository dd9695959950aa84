package render

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestRenderIsIdempotent(t *testing.T) {
	content := "Xin chào **bạn**! Công thức $x^2$ và [docs](https://example.com).\n```go\nfmt.Println(1)\n```"
	assert.Equal(t, Render(content), Render(content))
}

func TestExtractCodeBlock(t *testing.T) {
	res := Render("Intro text\n```go\n  fmt.Println(\"hi\")\n```\nOutro")
	require.NotNil(t, res.Code)
	assert.Equal(t, "go", res.Code.Language)
	assert.Equal(t, `fmt.Println("hi")`, res.Code.Code)
	assert.NotContains(t, res.HTML, "`")

	doc := parse(t, res.HTML)
	assert.Contains(t, doc.Text(), "Intro text")
	assert.Contains(t, doc.Text(), "Outro")
	assert.NotContains(t, doc.Text(), "Println")
}

func TestExtractCodeDefaultsToText(t *testing.T) {
	text, code := ExtractCode("```\nplain\n```")
	require.NotNil(t, code)
	assert.Equal(t, "text", code.Language)
	assert.Equal(t, "plain", code.Code)
	assert.Equal(t, "", text)
}

func TestExtractCodeOnlyFirstFence(t *testing.T) {
	text, code := ExtractCode("```a\none\n```\nmiddle\n```b\ntwo\n```")
	require.NotNil(t, code)
	assert.Equal(t, "one", code.Code)
	assert.Contains(t, text, "```b")
}

func TestDisplayMath(t *testing.T) {
	res := Render("$$x^2$$")
	assert.NotContains(t, res.HTML, "$$")
	assert.Contains(t, res.HTML, `class="math-display"`)
	assert.Contains(t, res.HTML, "<msup>")
	assert.Equal(t, 1, parse(t, res.HTML).Find("div.math-display").Length())
}

func TestDisplayMathToleratesInnerDollarWrapper(t *testing.T) {
	res := Render("$$\n$y$\n$$")
	assert.Contains(t, res.HTML, `class="math-display"`)
	assert.NotContains(t, res.HTML, "math-error")
	assert.NotContains(t, res.HTML, "$")
}

func TestMalformedMathShowsErrorMarker(t *testing.T) {
	res := Render(`Trước $$\frac{1}{2$$ sau **đậm**`)
	assert.Contains(t, res.HTML, `class="math-error"`)
	assert.Contains(t, res.HTML, `[LATEX ERROR: \frac{1}{2]`)

	doc := parse(t, res.HTML)
	assert.Equal(t, "đậm", doc.Find("strong").Text())
	assert.Contains(t, doc.Text(), "sau")
}

func TestMathProtectionRemovesInjectedBreaks(t *testing.T) {
	res := Render("Tính $a * b$ nhé")
	assert.Contains(t, res.HTML, `class="math-inline"`)
	assert.NotContains(t, res.HTML, "math-error")
	assert.Equal(t, 0, parse(t, res.HTML).Find("br").Length())
}

func TestArrowSubstitution(t *testing.T) {
	res := Render("H2 -> H")
	assert.Contains(t, res.HTML, "→")
	assert.NotContains(t, res.HTML, "rightarrow")

	res = Render("$A -> B$")
	assert.Contains(t, res.HTML, "<mo>→</mo>")
}

func TestStripsLiteralsAndHeadings(t *testing.T) {
	res := Render("## Title\nsnake_case `code`")
	text := parse(t, res.HTML).Text()
	assert.NotContains(t, text, "Title")
	assert.Contains(t, text, "snakecase code")
}

func TestListMarkersBreakLines(t *testing.T) {
	res := Render("Items: 1. one 2. two")
	assert.Equal(t, 2, parse(t, res.HTML).Find("br").Length())

	res = Render("Danh sách • a • b")
	assert.Equal(t, 2, parse(t, res.HTML).Find("br").Length())
}

func TestPunctuationSpacing(t *testing.T) {
	res := Render("Hello.World, pi is 3.14 at 10:30 see https://go.dev/doc.")
	text := parse(t, res.HTML).Text()
	assert.Contains(t, text, "Hello. World")
	assert.Contains(t, text, "3.14")
	assert.Contains(t, text, "10:30")
	assert.Contains(t, text, "https://go.dev/doc")
}

func TestVietnameseStepMarkers(t *testing.T) {
	res := Render("Làm như sau Bước 1: mở máy Bước 2: chạy")
	doc := parse(t, res.HTML)
	assert.Equal(t, 2, doc.Find("br").Length())
	assert.Contains(t, doc.Text(), "Bước 1. mở máy")
}

func TestEmphasis(t *testing.T) {
	res := Render("This is **bold** and *soft* text, *end*")
	doc := parse(t, res.HTML)
	assert.Equal(t, "bold", doc.Find("strong").Text())
	assert.Equal(t, 2, doc.Find("em").Length())

	res = Render("snake*case*name")
	doc = parse(t, res.HTML)
	assert.Equal(t, 0, doc.Find("em").Length())
	assert.Contains(t, doc.Text(), "snakecasename")
}

func TestKeywordBreaks(t *testing.T) {
	res := Render("Intro\nKết luận: xong")
	assert.Equal(t, 1, parse(t, res.HTML).Find("br").Length())
}

func TestResidualSymbols(t *testing.T) {
	res := Render("{value} * ")
	text := parse(t, res.HTML).Text()
	assert.NotContains(t, text, "{")
	assert.NotContains(t, text, "*")
	assert.Contains(t, text, "value")
}

func TestLinks(t *testing.T) {
	res := Render("Xem [Docs](https://example.com/docs) và https://go.dev.")
	doc := parse(t, res.HTML)
	links := doc.Find("a")
	require.Equal(t, 2, links.Length())

	href, _ := links.Eq(0).Attr("href")
	assert.Equal(t, "https://example.com/docs", href)
	assert.Equal(t, "Docs", links.Eq(0).Text())

	href, _ = links.Eq(1).Attr("href")
	assert.Equal(t, "https://go.dev", href)

	links.Each(func(_ int, s *goquery.Selection) {
		target, _ := s.Attr("target")
		rel, _ := s.Attr("rel")
		assert.Equal(t, "_blank", target)
		assert.Contains(t, rel, "noopener")
		assert.Contains(t, rel, "noreferrer")
	})
}

func TestBareURLStopsAtProtectedMarkup(t *testing.T) {
	res := Render("Go to https://example.com/$x$ now")
	assert.NotContains(t, res.HTML, "\uE000")
	assert.NotContains(t, res.HTML, "\uE001")
	assert.Contains(t, res.HTML, `class="math-inline"`)

	doc := parse(t, res.HTML)
	links := doc.Find("a")
	require.Equal(t, 1, links.Length())
	href, _ := links.Attr("href")
	assert.Equal(t, "https://example.com/", href)
	assert.Equal(t, "https://example.com/", links.Text())
}

func TestDisplayMathEnvironments(t *testing.T) {
	res := Render(`$$\begin{pmatrix}a&b\\c&d\end{pmatrix}$$`)
	assert.NotContains(t, res.HTML, "math-error")
	assert.Equal(t, 2, strings.Count(res.HTML, "<mtr>"))
	assert.Equal(t, 4, strings.Count(res.HTML, "<mtd>"))

	res = Render(`Phản ứng $\ce{2H2 + O2 -> 2H2O}$ xảy ra`)
	assert.NotContains(t, res.HTML, "math-error")
	assert.Contains(t, res.HTML, "<mo>→</mo>")
}

func TestNonHTTPLinksAreNotConverted(t *testing.T) {
	res := Render("[x](javascript:alert(1))")
	assert.Equal(t, 0, parse(t, res.HTML).Find("a").Length())
}

func TestSanitization(t *testing.T) {
	res := Render(`<script>alert(1)</script>hi <img src=x onerror=alert(1)> <a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, res.HTML, "<script")
	assert.NotContains(t, res.HTML, "onerror")
	assert.NotContains(t, res.HTML, "javascript:")
	assert.Contains(t, res.HTML, "hi")
}

func TestEmptyContent(t *testing.T) {
	res := Render("")
	assert.Equal(t, "", res.HTML)
	assert.Nil(t, res.Code)
	assert.False(t, res.RTL)
}

func TestIsRTLBoundary(t *testing.T) {
	mk := func(rtl int) string {
		return strings.Repeat("א", rtl) + strings.Repeat("a", 100-rtl)
	}
	assert.False(t, IsRTL(mk(29)))
	assert.False(t, IsRTL(mk(30)))
	assert.True(t, IsRTL(mk(31)))
	assert.True(t, IsRTL("مرحبا بالعالم"))
	assert.False(t, IsRTL(""))
}

func TestRenderMessageThinking(t *testing.T) {
	m := conversation.NewAssistantMessage("<thinking>\nplan **steps**\n</thinking>\nAnswer here")
	res := RenderMessage(m)
	assert.Equal(t, "plan **steps**", res.Thinking)
	assert.Contains(t, res.ThinkingHTML, "<strong>steps</strong>")
	assert.Contains(t, res.HTML, "Answer here")
	assert.NotContains(t, res.HTML, "plan")

	plain := RenderMessage(conversation.NewAssistantMessage("no thoughts"))
	assert.Equal(t, "", plain.Thinking)
	assert.Contains(t, plain.HTML, "no thoughts")

	user := RenderMessage(conversation.NewUserMessage("<thinking>x</thinking>y"))
	assert.Equal(t, "", user.Thinking)
}

func TestRenderMessageRTLUsesRawContent(t *testing.T) {
	m := conversation.NewAssistantMessage("<thinking>\nمرحبا بالعالم مرحبا بالعالم\n</thinking>\nok")
	res := RenderMessage(m)
	assert.True(t, res.RTL)
	assert.Contains(t, res.HTML, "ok")
	assert.False(t, Render("ok").RTL)
}

func TestStagesOrder(t *testing.T) {
	r := NewRenderer()
	assert.Equal(t, []string{
		"strip-literals", "strip-headings", "list-markers", "punctuation", "step-markers",
		"arrows", "protect-math", "math", "emphasis", "keywords", "residuals", "links",
	}, r.Stages())
}

func TestCustomMathFunc(t *testing.T) {
	r := NewRenderer(WithMathFunc(func(src string, display bool) (string, error) {
		return "<span>" + src + "</span>", nil
	}))
	out := r.Format("$k$")
	assert.Contains(t, out, `class="math-inline"`)
	assert.Contains(t, out, "k")
}

func TestPreviews(t *testing.T) {
	ts := time.UnixMilli(1)
	img := conversation.Attachment{ID: conversation.AttachmentID("a.png", 10, ts), Name: "a.png", Size: 10, Type: "image/png"}
	doc := conversation.Attachment{ID: "d", Name: "d.pdf", Size: 2 * 1024 * 1024, Type: "application/pdf"}
	bad := conversation.Attachment{ID: "b", Size: 1}

	resolve := func(id string) (string, bool) {
		if id == img.ID {
			return "blob:solomon/1", true
		}
		return "", false
	}

	previews := Previews([]conversation.Attachment{img, bad, doc}, resolve)
	require.Len(t, previews, 2)
	assert.Equal(t, "image", previews[0].Kind)
	assert.Equal(t, "file", previews[1].Kind)

	out := PreviewsHTML(previews)
	d := parse(t, out)
	src, _ := d.Find("img").Attr("src")
	assert.Equal(t, "blob:solomon/1", src)
	assert.Contains(t, d.Find("span.attachment-file").Text(), "d.pdf (2.00 MB)")

	archived := Previews([]conversation.Attachment{img}, nil)
	assert.Equal(t, "file", archived[0].Kind)
}
