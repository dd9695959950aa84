package latex

import (
	"strings"
)

type environment struct {
	open, close string
	align       string
	columnSpec  bool
}

var environments = map[string]environment{
	"matrix":      {},
	"smallmatrix": {},
	"pmatrix":     {open: "(", close: ")"},
	"bmatrix":     {open: "[", close: "]"},
	"Bmatrix":     {open: "{", close: "}"},
	"vmatrix":     {open: "|", close: "|"},
	"Vmatrix":     {open: "‖", close: "‖"},
	"cases":       {open: "{", align: "left left"},
	"rcases":      {close: "}", align: "left left"},
	"aligned":     {align: "right left"},
	"align":       {align: "right left"},
	"alignat":     {align: "right left", columnSpec: true},
	"split":       {align: "right left"},
	"eqnarray":    {align: "right center left"},
	"gathered":    {},
	"gather":      {},
	"array":       {columnSpec: true},
}

// parseEnvironment reads \begin{name} ... \end{name}, with the \begin
// already consumed. Cells are split on '&' and rows on '\\'.
func (p *parser) parseEnvironment() (string, error) {
	name, err := p.readBraced()
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	env, ok := environments[strings.TrimSuffix(name, "*")]
	if !ok {
		return "", p.errorf("unknown environment %q", name)
	}
	if env.columnSpec {
		if _, err := p.readBraced(); err != nil {
			return "", err
		}
	}

	var rows [][]string
	var row []string
	for {
		cell, err := p.parseCell()
		if err != nil {
			return "", err
		}
		row = append(row, cell)

		switch {
		case p.peek() == '&':
			p.pos++
		case p.hasPrefix(`\\`):
			p.pos += 2
			p.skipRowSpacing()
			rows = append(rows, row)
			row = nil
		default:
			p.pos += len(`\end`)
			end, err := p.readBraced()
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(end) != name {
				return "", p.errorf("\\begin{%s} closed by \\end{%s}", name, end)
			}
			// a trailing \\ leaves one empty cell behind
			if len(row) > 1 || row[0] != "" || len(rows) == 0 {
				rows = append(rows, row)
			}
			return env.wrap(rows), nil
		}
	}
}

// skipRowSpacing drops the optional [2pt] after a row break.
func (p *parser) skipRowSpacing() {
	p.skipSpaces()
	if p.eof() || p.peek() != '[' {
		return
	}
	for i := p.pos; i < len(p.src); i++ {
		if p.src[i] == ']' {
			p.pos = i + 1
			return
		}
	}
}

func (e environment) wrap(rows [][]string) string {
	var sb strings.Builder
	if e.open != "" {
		sb.WriteString("<mo>" + e.open + "</mo>")
	}
	if e.align != "" {
		sb.WriteString(`<mtable columnalign="` + e.align + `">`)
	} else {
		sb.WriteString("<mtable>")
	}
	for _, row := range rows {
		sb.WriteString("<mtr>")
		for _, cell := range row {
			sb.WriteString("<mtd>" + cell + "</mtd>")
		}
		sb.WriteString("</mtr>")
	}
	sb.WriteString("</mtable>")
	if e.close != "" {
		sb.WriteString("<mo>" + e.close + "</mo>")
	}
	return "<mrow>" + sb.String() + "</mrow>"
}
