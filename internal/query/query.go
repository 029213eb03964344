// Package query compiles declarative search filters into parameterized SQL
// predicates. User input is only ever passed through bound arguments; sort
// orders come from closed enums, never from free-form strings.
package query

import (
	"strconv"
	"strings"
)

// Builder accumulates (clause, bound-argument) pairs and compiles them into
// a WHERE fragment at the end. Clauses are combined with AND; an empty
// builder compiles to no WHERE at all rather than a match-all placeholder.
type Builder struct {
	conds []string
	args  []any
}

// Bind registers an argument and returns its positional placeholder. The
// same placeholder may be reused within one clause.
func (b *Builder) Bind(arg any) string {
	b.args = append(b.args, arg)
	return "$" + strconv.Itoa(len(b.args))
}

// Where appends a completed clause. The clause must only reference
// placeholders obtained from Bind.
func (b *Builder) Where(cond string) {
	b.conds = append(b.conds, cond)
}

// Clause returns the compiled WHERE fragment, with a leading space, or the
// empty string when no clause was added.
func (b *Builder) Clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func (b *Builder) Args() []any {
	return b.args
}
