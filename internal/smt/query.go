package smt

import (
	"fmt"
	"strings"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
)

// Unknowns are the four 32-bit serial groups, in serial order.
var Unknowns = [4]string{"p0", "p1", "p2", "p3"}

// Query is one solver invocation: a fixed name, a seed and a time limit.
type Query struct {
	Params  formula.Params
	Derived formula.Derived
	Seed    uint32
	// Timeout is passed to the solver as a soft limit. Zero means none.
	Timeout time.Duration
}

// Script renders q as a complete SMT-LIB2 script ending in check-sat and
// get-value for the four serial groups.
func Script(q Query) string {
	b := NewBuilder()

	var g [4]Term
	for i, name := range Unknowns {
		g[i] = b.Declare(name, 32)
	}

	h1 := b.Concat(g[0], g[1])
	h2 := b.Concat(g[2], g[3])

	result := formula.Eval[Term](b, q.Params, b.Const(q.Derived.A), b.Const(q.Derived.B), h1, h2)
	b.AssertEqual(result, q.Params.Target)

	var sb strings.Builder

	sb.WriteString("(set-option :produce-models true)\n")
	fmt.Fprintf(&sb, "(set-option :smt.random_seed %d)\n", q.Seed)
	fmt.Fprintf(&sb, "(set-option :sat.random_seed %d)\n", q.Seed)

	if q.Timeout > 0 {
		fmt.Fprintf(&sb, "(set-option :timeout %d)\n", q.Timeout.Milliseconds())
	}

	sb.WriteString("(set-logic QF_BV)\n")
	sb.WriteString(b.String())
	sb.WriteString("(check-sat)\n")
	fmt.Fprintf(&sb, "(get-value (%s))\n", strings.Join(Unknowns[:], " "))

	return sb.String()
}
