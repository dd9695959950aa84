// Package latex renders a practical subset of LaTeX math into MathML.
//
// The renderer covers what model output uses in practice: fractions, roots,
// scripts, greek letters, common operators and arrows, function names, accents,
// text and font commands, matrix-like environments and mhchem \ce formulas.
// Anything it does not understand is reported as a ParseError so callers can
// show the raw source instead.
package latex

import (
	"fmt"
	"html"
	"strings"
	"unicode"
)

const mathMLNamespace = "http://www.w3.org/1998/Math/MathML"

// ParseError carries the offending source and the rune offset of the failure.
type ParseError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("latex: %s at position %d in %q", e.Msg, e.Pos, e.Source)
}

// Render converts src into a <math> element. display selects block layout.
func Render(src string, display bool) (string, error) {
	p := &parser{src: []rune(src), raw: src}
	body, err := p.parseExpr(0)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(`<math xmlns="` + mathMLNamespace + `"`)
	if display {
		sb.WriteString(` display="block"`)
	}
	sb.WriteString("><mrow>")
	sb.WriteString(body)
	sb.WriteString("</mrow></math>")
	return sb.String(), nil
}

type atom struct {
	base   string
	sub    string
	sup    string
	hasSub bool
	hasSup bool
}

func (a atom) String() string {
	switch {
	case a.hasSub && a.hasSup:
		return "<msubsup>" + a.base + a.sub + a.sup + "</msubsup>"
	case a.hasSub:
		return "<msub>" + a.base + a.sub + "</msub>"
	case a.hasSup:
		return "<msup>" + a.base + a.sup + "</msup>"
	default:
		return a.base
	}
}

type parser struct {
	src []rune
	raw string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Source: p.raw, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	return p.src[p.pos]
}

func (p *parser) skipSpaces() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

// parseExpr reads atoms until closing is consumed. closing == 0 means end of input.
func (p *parser) parseExpr(closing rune) (string, error) {
	return p.parseSeq(closing, false)
}

// parseCell reads one environment cell and stops before '&', '\\' or \end.
func (p *parser) parseCell() (string, error) {
	return p.parseSeq(0, true)
}

func (p *parser) parseSeq(closing rune, cell bool) (string, error) {
	var atoms []atom
	for {
		p.skipSpaces()
		if cell {
			if p.eof() {
				return "", p.errorf("missing \\end")
			}
			if p.atCellBreak() {
				break
			}
		}
		if p.eof() {
			if closing != 0 {
				return "", p.errorf("missing closing %q", closing)
			}
			break
		}
		r := p.peek()
		if closing != 0 && r == closing {
			p.pos++
			break
		}

		switch r {
		case '}':
			return "", p.errorf("unexpected '}'")
		case '^', '_':
			p.pos++
			if len(atoms) == 0 {
				atoms = append(atoms, atom{base: "<mrow></mrow>"})
			}
			arg, err := p.parseArg()
			if err != nil {
				return "", err
			}
			last := &atoms[len(atoms)-1]
			if r == '^' {
				if last.hasSup {
					return "", p.errorf("double superscript")
				}
				last.sup, last.hasSup = arg, true
			} else {
				if last.hasSub {
					return "", p.errorf("double subscript")
				}
				last.sub, last.hasSub = arg, true
			}
		default:
			s, err := p.parseAtom()
			if err != nil {
				return "", err
			}
			if s != "" {
				atoms = append(atoms, atom{base: s})
			}
		}
	}

	var sb strings.Builder
	for _, a := range atoms {
		sb.WriteString(a.String())
	}
	return sb.String(), nil
}

// parseArg reads a braced group, a command or a single character.
func (p *parser) parseArg() (string, error) {
	p.skipSpaces()
	if p.eof() {
		return "", p.errorf("missing argument")
	}
	switch p.peek() {
	case '{':
		p.pos++
		inner, err := p.parseExpr('}')
		if err != nil {
			return "", err
		}
		return "<mrow>" + inner + "</mrow>", nil
	case '}', '^', '_':
		return "", p.errorf("missing argument")
	case '\\':
		return p.parseAtom()
	default:
		r := p.peek()
		p.pos++
		return single(r), nil
	}
}

func (p *parser) parseAtom() (string, error) {
	r := p.peek()
	switch {
	case r == '{':
		p.pos++
		inner, err := p.parseExpr('}')
		if err != nil {
			return "", err
		}
		return "<mrow>" + inner + "</mrow>", nil
	case r == '\\':
		p.pos++
		return p.parseCommand()
	case unicode.IsDigit(r):
		start := p.pos
		for !p.eof() && (unicode.IsDigit(p.peek()) || (p.peek() == '.' && p.pos+1 < len(p.src) && unicode.IsDigit(p.src[p.pos+1]))) {
			p.pos++
		}
		return "<mn>" + string(p.src[start:p.pos]) + "</mn>", nil
	case r == '&':
		p.pos++
		return `<mspace width="1em"></mspace>`, nil
	default:
		p.pos++
		return single(r), nil
	}
}

func (p *parser) hasPrefix(prefix string) bool {
	i := p.pos
	for _, r := range prefix {
		if i >= len(p.src) || p.src[i] != r {
			return false
		}
		i++
	}
	return true
}

func (p *parser) atCellBreak() bool {
	if p.peek() == '&' || p.hasPrefix(`\\`) {
		return true
	}
	if !p.hasPrefix(`\end`) {
		return false
	}
	next := p.pos + len(`\end`)
	return next >= len(p.src) || !unicode.IsLetter(p.src[next])
}

func single(r rune) string {
	switch {
	case unicode.IsLetter(r):
		return "<mi>" + html.EscapeString(string(r)) + "</mi>"
	case unicode.IsDigit(r):
		return "<mn>" + string(r) + "</mn>"
	case r == '-':
		return "<mo>−</mo>"
	case r == '*':
		return "<mo>∗</mo>"
	case r == '\'':
		return "<mo>′</mo>"
	default:
		return "<mo>" + html.EscapeString(string(r)) + "</mo>"
	}
}

func (p *parser) readName() string {
	if p.eof() {
		return ""
	}
	if !unicode.IsLetter(p.peek()) {
		r := p.peek()
		p.pos++
		return string(r)
	}
	start := p.pos
	for !p.eof() && unicode.IsLetter(p.peek()) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// readBraced returns the raw text of a {...} group without parsing it.
func (p *parser) readBraced() (string, error) {
	p.skipSpaces()
	if p.eof() || p.peek() != '{' {
		return "", p.errorf("missing argument")
	}
	p.pos++
	start := p.pos
	depth := 1
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s := string(p.src[start:p.pos])
				p.pos++
				return s, nil
			}
		}
		p.pos++
	}
	return "", p.errorf("missing closing '}'")
}

func (p *parser) parseCommand() (string, error) {
	cmdPos := p.pos
	name := p.readName()
	if name == "" {
		return "", p.errorf("dangling backslash")
	}

	if s, ok := greek[name]; ok {
		return "<mi>" + s + "</mi>", nil
	}
	if s, ok := operators[name]; ok {
		return "<mo>" + s + "</mo>", nil
	}
	if s, ok := identifiers[name]; ok {
		return "<mi>" + s + "</mi>", nil
	}
	if functions[name] {
		return `<mi mathvariant="normal">` + name + "</mi>", nil
	}
	if w, ok := spaces[name]; ok {
		return `<mspace width="` + w + `"></mspace>`, nil
	}
	if mark, ok := accents[name]; ok {
		arg, err := p.parseArg()
		if err != nil {
			return "", err
		}
		return `<mover accent="true">` + arg + "<mo>" + mark + "</mo></mover>", nil
	}
	if variant, ok := fonts[name]; ok {
		arg, err := p.parseArg()
		if err != nil {
			return "", err
		}
		return `<mstyle mathvariant="` + variant + `">` + arg + "</mstyle>", nil
	}

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := p.parseArg()
		if err != nil {
			return "", err
		}
		den, err := p.parseArg()
		if err != nil {
			return "", err
		}
		return "<mfrac>" + num + den + "</mfrac>", nil
	case "sqrt":
		p.skipSpaces()
		if !p.eof() && p.peek() == '[' {
			p.pos++
			index, err := p.parseExpr(']')
			if err != nil {
				return "", err
			}
			arg, err := p.parseArg()
			if err != nil {
				return "", err
			}
			return "<mroot>" + arg + "<mrow>" + index + "</mrow></mroot>", nil
		}
		arg, err := p.parseArg()
		if err != nil {
			return "", err
		}
		return "<msqrt>" + arg + "</msqrt>", nil
	case "text", "textrm", "mbox", "operatorname":
		s, err := p.readBraced()
		if err != nil {
			return "", err
		}
		if name == "operatorname" {
			return `<mi mathvariant="normal">` + html.EscapeString(s) + "</mi>", nil
		}
		return "<mtext>" + html.EscapeString(s) + "</mtext>", nil
	case "left", "right", "big", "Big", "bigl", "bigr", "Bigl", "Bigr":
		p.skipSpaces()
		if p.eof() {
			return "", p.errorf("missing delimiter after \\%s", name)
		}
		if p.peek() == '.' {
			p.pos++
			return "", nil
		}
		return p.parseAtom()
	case "{", "}", "%", "$", "#", "&", "|":
		return "<mo>" + html.EscapeString(name) + "</mo>", nil
	case "\\":
		return `<mspace linebreak="newline"></mspace>`, nil
	case "displaystyle", "textstyle", "limits", "nolimits":
		return "", nil
	case "begin":
		return p.parseEnvironment()
	case "ce":
		src, err := p.readBraced()
		if err != nil {
			return "", err
		}
		return p.parseChem(src)
	}

	p.pos = cmdPos
	return "", p.errorf("unknown command \\%s", name)
}
