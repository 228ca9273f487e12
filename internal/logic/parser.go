package logic

import "strings"

// ops are matched longest-first so "<=" is not read as "<".
var ops = []Op{OpEq, OpNe, OpLe, OpGe, OpLt, OpGt}

// Parse turns a condition string into an expression tree under the given
// grammar version. It is total: unparsable input yields Invalid nodes rather
// than errors, and Invalid nodes evaluate to false.
func Parse(condition string, version GrammarVersion) Expr {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return Invalid{Raw: ""}
	}
	if version == GrammarV1 {
		if cmp, ok := parseComparison(condition, false); ok {
			return cmp
		}
		return Invalid{Raw: condition}
	}

	// GrammarV2: OR of AND of atoms. OR has the lowest precedence, AND binds
	// tighter, no parentheses. The operators are plain token separators.
	orParts := strings.Split(condition, "||")
	groups := make([]Expr, 0, len(orParts))
	for _, part := range orParts {
		andParts := strings.Split(part, "&&")
		terms := make([]Expr, 0, len(andParts))
		for _, atom := range andParts {
			terms = append(terms, parseAtom(atom))
		}
		if len(terms) == 1 {
			groups = append(groups, terms[0])
			continue
		}
		groups = append(groups, AndGroup{Terms: terms})
	}
	if len(groups) == 1 {
		return groups[0]
	}
	return OrGroup{Groups: groups}
}

func parseAtom(raw string) Expr {
	raw = strings.TrimSpace(raw)
	if c, ok := parseContains(raw); ok {
		return c
	}
	if cmp, ok := parseComparison(raw, true); ok {
		return cmp
	}
	return Invalid{Raw: raw}
}

// parseComparison reads `answer("<qid>") <op> <value>`. stripQuotes controls
// whether a quoted value literal loses its quotes (GrammarV2 behavior).
func parseComparison(raw string, stripQuotes bool) (Comparison, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "answer(") {
		return Comparison{}, false
	}
	close := strings.Index(raw, ")")
	if close < 0 {
		return Comparison{}, false
	}
	qid, ok := unquote(raw[len("answer("):close])
	if !ok || qid == "" {
		return Comparison{}, false
	}
	rest := strings.TrimSpace(raw[close+1:])
	var op Op
	for _, candidate := range ops {
		if strings.HasPrefix(rest, string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Comparison{}, false
	}
	value := strings.TrimSpace(rest[len(op):])
	if value == "" {
		return Comparison{}, false
	}
	if stripQuotes {
		if s, quoted := unquote(value); quoted {
			value = s
		}
	}
	return Comparison{QuestionID: qid, Op: op, Value: newLiteral(value)}, true
}

// parseContains reads `contains("<qid>","<value>")`.
func parseContains(raw string) (Contains, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "contains(") || !strings.HasSuffix(raw, ")") {
		return Contains{}, false
	}
	inner := raw[len("contains(") : len(raw)-1]
	comma := splitArgs(inner)
	if comma < 0 {
		return Contains{}, false
	}
	qid, ok := unquote(strings.TrimSpace(inner[:comma]))
	if !ok || qid == "" {
		return Contains{}, false
	}
	value, ok := unquote(strings.TrimSpace(inner[comma+1:]))
	if !ok {
		return Contains{}, false
	}
	return Contains{QuestionID: qid, Value: value}, true
}

// splitArgs finds the argument-separating comma outside any quotes.
func splitArgs(s string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			return i
		}
	}
	return -1
}

// unquote strips one matching pair of single or double quotes.
func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}
