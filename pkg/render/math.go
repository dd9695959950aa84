package render

import (
	"html"
	"strings"

	"github.com/go-go-golems/solomon/pkg/latex"
	"github.com/rs/zerolog/log"
)

// MathFunc renders LaTeX source into markup.
type MathFunc func(src string, display bool) (string, error)

type mathSpan struct {
	start, end int // byte offsets including delimiters
	inner      string
	display    bool
}

// findMathSpans scans for $$...$$ and $...$ spans, display first at each
// position. An unterminated delimiter is treated as plain text.
func findMathSpans(s string) []mathSpan {
	var spans []mathSpan
	for i := 0; i < len(s); {
		if s[i] != '$' {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], "$$") {
			if j := strings.Index(s[i+2:], "$$"); j >= 0 {
				end := i + 2 + j + 2
				spans = append(spans, mathSpan{start: i, end: end, inner: s[i+2 : i+2+j], display: true})
				i = end
				continue
			}
			i += 2
			continue
		}
		j := strings.IndexByte(s[i+1:], '$')
		if j <= 0 {
			i++
			continue
		}
		end := i + 1 + j + 1
		spans = append(spans, mathSpan{start: i, end: end, inner: s[i+1 : i+1+j]})
		i = end
	}
	return spans
}

func rewriteMathSpans(s string, f func(span mathSpan) string) string {
	spans := findMathSpans(s)
	if len(spans) == 0 {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, span := range spans {
		sb.WriteString(s[last:span.start])
		sb.WriteString(f(span))
		last = span.end
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// protectMath strips the <br> that list and step breaking injected inside
// formulas. It has to run before any more line breaking.
func protectMath(s string) string {
	return rewriteMathSpans(s, func(span mathSpan) string {
		inner := strings.ReplaceAll(span.inner, "<br>", "")
		if span.display {
			return "$$" + inner + "$$"
		}
		return "$" + inner + "$"
	})
}

func mathErrorMarkup(src string) string {
	return `<code class="math-error">[LATEX ERROR: ` + html.EscapeString(src) + `]</code>`
}

// mathStage renders every formula and parks the result behind a placeholder.
// A failing formula becomes a visible error marker, the rest renders normally.
func mathStage(render MathFunc) Stage {
	return Stage{
		Name: "math",
		Apply: func(d *document) {
			d.text = rewriteMathSpans(d.text, func(span mathSpan) string {
				if span.display {
					src := strings.TrimSuffix(strings.TrimPrefix(span.inner, "\n"), "\n")
					src = strings.TrimSpace(src)
					src = strings.TrimSuffix(strings.TrimPrefix(src, "$"), "$")
					out, err := render(src, true)
					if err != nil {
						log.Debug().Err(err).Str("latex", src).Msg("display math failed to render")
						return d.protect(mathErrorMarkup(span.inner))
					}
					return d.protect(`<div class="math-display">` + out + `</div>`)
				}
				src := strings.TrimSpace(span.inner)
				out, err := render(src, false)
				if err != nil {
					log.Debug().Err(err).Str("latex", src).Msg("inline math failed to render")
					return d.protect(mathErrorMarkup(span.inner))
				}
				return d.protect(`<span class="math-inline">` + out + `</span>`)
			})
			d.text = strings.ReplaceAll(d.text, `\rightarrow`, "→")
		},
	}
}

func defaultMath(src string, display bool) (string, error) {
	return latex.Render(src, display)
}
