package search

import (
	"strings"
	"unicode"
)

// Expr is a query string translated for FTS5.
//
// Match is the positive MATCH expression and Exclude the expression whose
// hits are removed from the result. FTS5 has no unary NOT, so negated
// clauses travel separately. Both empty means every document matches.
type Expr struct {
	Match   string
	Exclude string
}

// MatchAll reports whether the expression selects every document.
func (e Expr) MatchAll() bool {
	return e.Match == "" && e.Exclude == ""
}

// searchable lists the fields a query may address with field:term.
var searchable = map[string]bool{
	"name":        true,
	"description": true,
}

type clause struct {
	field  string
	text   string
	prefix bool
	negate bool
}

func (c clause) fts() string {
	s := `"` + strings.ReplaceAll(c.text, `"`, `""`) + `"`
	if c.prefix {
		s += "*"
	}
	if c.field != "" {
		s = c.field + ":" + s
	}
	return s
}

// Translate converts a query string into an FTS5 expression.
//
// Supported syntax: whitespace separated terms (AND-ed), the AND/OR/NOT
// operators, -term and !term negation, "quoted phrases", field:term on the
// searchable fields and a trailing * for prefix matches. A lone * or *:*
// matches everything. Other special characters are dropped.
func Translate(query string) Expr {
	var positive []string
	var negative []string

	op := "AND"
	negateNext := false
	for _, tok := range tokenize(query) {
		switch tok {
		case "AND", "&&":
			op = "AND"
			continue
		case "OR", "||":
			op = "OR"
			continue
		case "NOT":
			negateNext = true
			continue
		}

		c, ok := parseClause(tok)
		if !ok {
			negateNext = false
			continue
		}
		if negateNext {
			c.negate = !c.negate
			negateNext = false
		}

		if c.negate {
			negative = append(negative, c.fts())
		} else {
			if len(positive) > 0 {
				positive = append(positive, op)
			}
			positive = append(positive, c.fts())
		}
		op = "AND"
	}

	return Expr{
		Match:   strings.Join(positive, " "),
		Exclude: strings.Join(negative, " OR "),
	}
}

// tokenize splits on whitespace, keeping quoted sections (with any field
// prefix and trailing *) in one token.
func tokenize(query string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func parseClause(tok string) (clause, bool) {
	var c clause

	for len(tok) > 0 && (tok[0] == '-' || tok[0] == '!' || tok[0] == '+') {
		if tok[0] != '+' {
			c.negate = !c.negate
		}
		tok = tok[1:]
	}

	if i := strings.IndexByte(tok, ':'); i > 0 && !strings.HasPrefix(tok, `"`) {
		field := strings.ToLower(tok[:i])
		tok = tok[i+1:]
		if searchable[field] {
			c.field = field
		}
		if field == "*" && tok == "*" {
			return clause{}, false
		}
	}

	if strings.HasSuffix(tok, "*") {
		c.prefix = true
		tok = strings.TrimRight(tok, "*")
	}

	if strings.HasPrefix(tok, `"`) {
		c.text = cleanPhrase(strings.Trim(tok, `"`))
	} else {
		c.text = cleanTerm(tok)
	}
	if c.text == "" {
		return clause{}, false
	}
	return c, true
}

// cleanTerm keeps letters and digits of a bare term.
func cleanTerm(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// cleanPhrase keeps letters, digits and single spaces of a quoted phrase.
func cleanPhrase(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
