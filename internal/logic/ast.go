// Package logic implements the condition DSL, the question flow graph, the
// static flow validator and runtime navigation. Everything here is pure and
// deterministic: no I/O, no hidden state, no panics on malformed input.
package logic

import (
	"strconv"
	"strings"
)

// GrammarVersion selects the condition grammar for a survey. Published
// surveys depend on frozen semantics, so an existing version's behavior is
// never changed in place; new behavior gets a new constant.
type GrammarVersion int

const (
	// GrammarV1 accepts a single comparison atom and nothing else.
	GrammarV1 GrammarVersion = 1
	// GrammarV2 adds || of && grouping, contains() and quote stripping.
	GrammarV2 GrammarVersion = 2

	// DefaultGrammar is assigned to newly created surveys.
	DefaultGrammar = GrammarV2
)

// Valid reports whether v names a known grammar.
func (v GrammarVersion) Valid() bool { return v == GrammarV1 || v == GrammarV2 }

// Op is a comparison operator in the condition DSL.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Expr is a parsed condition node.
type Expr interface{ isExpr() }

// Literal is a comparison operand: kept as the raw token plus its numeric
// value when the token parses cleanly as a number.
type Literal struct {
	Raw     string
	Num     float64
	Numeric bool
}

// Comparison is `answer("<qid>") <op> <value>`.
type Comparison struct {
	QuestionID string
	Op         Op
	Value      Literal
}

// Contains is `contains("<qid>","<value>")`, available from GrammarV2.
type Contains struct {
	QuestionID string
	Value      string
}

// AndGroup is a conjunction of atoms.
type AndGroup struct {
	Terms []Expr
}

// OrGroup is a disjunction of conjunctions; OR has the lowest precedence.
type OrGroup struct {
	Groups []Expr
}

// Invalid is an atom that failed to parse. It always evaluates to false,
// which is the fail-closed contract: a broken rule never fires.
type Invalid struct {
	Raw string
}

func (Comparison) isExpr() {}
func (Contains) isExpr()   {}
func (AndGroup) isExpr()   {}
func (OrGroup) isExpr()    {}
func (Invalid) isExpr()    {}

// HasInvalid reports whether any atom under e failed to parse.
func HasInvalid(e Expr) bool {
	switch n := e.(type) {
	case Invalid:
		return true
	case AndGroup:
		for _, t := range n.Terms {
			if HasInvalid(t) {
				return true
			}
		}
	case OrGroup:
		for _, g := range n.Groups {
			if HasInvalid(g) {
				return true
			}
		}
	}
	return false
}

func newLiteral(raw string) Literal {
	lit := Literal{Raw: raw}
	if raw == "" {
		return lit
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		lit.Num = n
		lit.Numeric = true
	}
	return lit
}
