package latex

import (
	"html"
	"strings"
	"unicode"
)

var chemArrows = []struct {
	token, glyph string
}{
	{"<=>", "⇌"},
	{"<->", "↔"},
	{"->", "→"},
	{"<-", "←"},
	{"=", "="},
}

type chemAtom struct {
	base     string
	sub, sup string
}

// parseChem renders the mhchem subset models use: element symbols with
// count subscripts, charges, coefficients, arrows and state suffixes like (aq).
func (p *parser) parseChem(src string) (string, error) {
	rs := []rune(src)
	var atoms []chemAtom
	// species is true while the previous token can take a count or a charge
	species := false

	last := func() *chemAtom {
		if len(atoms) == 0 {
			atoms = append(atoms, chemAtom{base: "<mrow></mrow>"})
		}
		return &atoms[len(atoms)-1]
	}
	push := func(base string, isSpecies bool) {
		atoms = append(atoms, chemAtom{base: base})
		species = isSpecies
	}

	for i := 0; i < len(rs); {
		r := rs[i]
		if unicode.IsSpace(r) {
			species = false
			i++
			continue
		}
		if glyph, n := chemArrow(rs[i:]); n > 0 {
			push("<mo>"+glyph+"</mo>", false)
			i += n
			continue
		}

		switch {
		case r == '\\':
			j := i + 1
			for j < len(rs) && unicode.IsLetter(rs[j]) {
				j++
			}
			name := string(rs[i+1 : j])
			glyph, ok := operators[name]
			if !ok {
				return "", p.errorf("unknown command \\%s in \\ce", name)
			}
			push("<mo>"+glyph+"</mo>", false)
			i = j
		case unicode.IsUpper(r):
			j := i + 1
			for j < len(rs) && unicode.IsLower(rs[j]) {
				j++
			}
			push(`<mi mathvariant="normal">`+string(rs[i:j])+"</mi>", true)
			i = j
		case unicode.IsLower(r):
			j := i + 1
			for j < len(rs) && unicode.IsLower(rs[j]) {
				j++
			}
			push(`<mi mathvariant="normal">`+string(rs[i:j])+"</mi>", true)
			i = j
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			if species {
				last().sub += string(rs[i:j])
			} else {
				push("<mn>"+string(rs[i:j])+"</mn>", false)
			}
			i = j
		case r == '+' || r == '-':
			if species {
				last().sup += string(r)
			} else {
				push(single(r), false)
			}
			i++
		case r == '^' || r == '_':
			text, n, err := p.chemScript(rs[i+1:])
			if err != nil {
				return "", err
			}
			if r == '^' {
				last().sup += text
			} else {
				last().sub += text
			}
			species = true
			i += 1 + n
		case r == '(' || r == '[':
			push("<mo>"+string(r)+"</mo>", false)
			i++
		case r == ')' || r == ']':
			push("<mo>"+string(r)+"</mo>", true)
			i++
		default:
			push("<mo>"+html.EscapeString(string(r))+"</mo>", false)
			i++
		}
	}

	var sb strings.Builder
	sb.WriteString("<mrow>")
	for _, a := range atoms {
		sb.WriteString(atom{
			base:   a.base,
			sub:    chemScriptMarkup(a.sub),
			sup:    chemScriptMarkup(a.sup),
			hasSub: a.sub != "",
			hasSup: a.sup != "",
		}.String())
	}
	sb.WriteString("</mrow>")
	return sb.String(), nil
}

func chemArrow(rs []rune) (string, int) {
	s := string(rs)
	for _, a := range chemArrows {
		if strings.HasPrefix(s, a.token) {
			return a.glyph, len([]rune(a.token))
		}
	}
	return "", 0
}

// chemScript reads the argument of ^ or _: a braced group or a run of
// digits and signs.
func (p *parser) chemScript(rs []rune) (string, int, error) {
	if len(rs) == 0 {
		return "", 0, p.errorf("missing argument in \\ce")
	}
	if rs[0] == '{' {
		for j := 1; j < len(rs); j++ {
			if rs[j] == '}' {
				return string(rs[1:j]), j + 1, nil
			}
		}
		return "", 0, p.errorf("missing closing '}' in \\ce")
	}
	j := 0
	for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '+' || rs[j] == '-') {
		j++
	}
	if j == 0 {
		return "", 0, p.errorf("missing argument in \\ce")
	}
	return string(rs[:j]), j, nil
}

func chemScriptMarkup(text string) string {
	if text == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<mrow>")
	for _, r := range text {
		if unicode.IsDigit(r) {
			sb.WriteString("<mn>" + string(r) + "</mn>")
			continue
		}
		sb.WriteString(single(r))
	}
	sb.WriteString("</mrow>")
	return sb.String()
}
