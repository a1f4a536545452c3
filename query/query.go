// Package query compiles a small subset of the WHERE-clause grammar
// documented in spec §6 ("SELECT <fields> WHERE <predicate>") into a Go
// predicate function over an xbase.Record. It is deliberately thin: a
// single comparison grammar with AND/OR conjunction, no parentheses, no
// full expression parser. This is the documented external-collaborator
// boundary — it reaches the table only through the public xbase.Record
// field accessors, never table/record internals.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mkfoss/xbase"
)

// Predicate reports whether rec satisfies a compiled WHERE clause.
type Predicate func(rec *xbase.Record) (bool, error)

type op int

const (
	opEQ op = iota
	opNE
	opLT
	opLE
	opGT
	opGE
	opLike
)

type clause struct {
	field   string
	op      op
	literal any
	andNext bool // true: AND with the following clause; false: OR
}

// Compile parses expr, a sequence of "field OP literal" comparisons
// joined by AND/OR (left to right, no operator precedence, no
// parentheses), into a Predicate.
//
// Supported operators: = != < <= > >= LIKE. A literal is a quoted
// string, or a bare token parsed as a float64.
func Compile(expr string) (Predicate, error) {
	clauses, err := parseClauses(expr)
	if err != nil {
		return nil, err
	}
	return func(rec *xbase.Record) (bool, error) {
		result := true
		for i, c := range clauses {
			matched, err := evalClause(rec, c)
			if err != nil {
				return false, err
			}
			if i == 0 {
				result = matched
				continue
			}
			if clauses[i-1].andNext {
				result = result && matched
			} else {
				result = result || matched
			}
		}
		return result, nil
	}, nil
}

func evalClause(rec *xbase.Record, c clause) (bool, error) {
	v, err := rec.Field(c.field)
	if err != nil {
		return false, err
	}
	switch c.op {
	case opLike:
		s, ok := v.(string)
		if !ok {
			return false, fmt.Errorf("query: LIKE against non-string field %q", c.field)
		}
		pat, _ := c.literal.(string)
		return strings.Contains(s, strings.Trim(pat, "%")), nil
	default:
		return compareValues(v, c.literal, c.op)
	}
}

func compareValues(a, b any, o op) (bool, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch o {
		case opEQ:
			return af == bf, nil
		case opNE:
			return af != bf, nil
		case opLT:
			return af < bf, nil
		case opLE:
			return af <= bf, nil
		case opGT:
			return af > bf, nil
		case opGE:
			return af >= bf, nil
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch o {
	case opEQ:
		return as == bs, nil
	case opNE:
		return as != bs, nil
	case opLT:
		return as < bs, nil
	case opLE:
		return as <= bs, nil
	case opGT:
		return as > bs, nil
	case opGE:
		return as >= bs, nil
	}
	return false, fmt.Errorf("query: unsupported operator")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

var opTokens = []struct {
	text string
	op   op
}{
	{"!=", opNE},
	{"<=", opLE},
	{">=", opGE},
	{"=", opEQ},
	{"<", opLT},
	{">", opGT},
}

func parseClauses(expr string) ([]clause, error) {
	parts, conjunctions := splitOnConjunctions(expr)
	clauses := make([]clause, len(parts))
	for i, p := range parts {
		c, err := parseOneClause(p)
		if err != nil {
			return nil, err
		}
		if i < len(conjunctions) {
			c.andNext = conjunctions[i] == "AND"
		}
		clauses[i] = c
	}
	return clauses, nil
}

func splitOnConjunctions(expr string) (parts []string, conjunctions []string) {
	upper := strings.ToUpper(expr)
	var cur strings.Builder
	i := 0
	for i < len(expr) {
		if matchWord(upper[i:], "AND") {
			parts = append(parts, cur.String())
			conjunctions = append(conjunctions, "AND")
			cur.Reset()
			i += 3
			continue
		}
		if matchWord(upper[i:], "OR") {
			parts = append(parts, cur.String())
			conjunctions = append(conjunctions, "OR")
			cur.Reset()
			i += 2
			continue
		}
		cur.WriteByte(expr[i])
		i++
	}
	parts = append(parts, cur.String())
	return parts, conjunctions
}

func matchWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	next := s[len(word)]
	return next == ' ' || next == '\t'
}

func parseOneClause(s string) (clause, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if idx := strings.Index(upper, " LIKE "); idx >= 0 {
		field := strings.TrimSpace(s[:idx])
		lit := strings.TrimSpace(s[idx+6:])
		return clause{field: field, op: opLike, literal: unquote(lit)}, nil
	}
	for _, tok := range opTokens {
		if idx := strings.Index(s, tok.text); idx >= 0 {
			field := strings.TrimSpace(s[:idx])
			litStr := strings.TrimSpace(s[idx+len(tok.text):])
			return clause{field: field, op: tok.op, literal: parseLiteral(litStr)}, nil
		}
	}
	return clause{}, fmt.Errorf("query: no recognized operator in clause %q", s)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func parseLiteral(s string) any {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
