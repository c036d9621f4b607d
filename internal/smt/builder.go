// Package smt renders the serial check as an SMT-LIB2 bit-vector problem and
// runs it through an external solver process (Z3).
//
// Terms are built through the same bitvec.Algebra the concrete evaluator
// uses, so the symbolic constraint cannot drift from the checked formula.
// Every intermediate becomes a define-fun, which keeps the script linear in
// the size of the formula even though intermediates are reused.
package smt

import (
	"fmt"
	"strings"

	"github.com/mahdiidarabi/froggy-keygen/internal/bitvec"
)

// Term is an SMT-LIB2 expression of sort (_ BitVec 64).
type Term string

// Builder accumulates declarations, definitions and assertions.
type Builder struct {
	decls   []string
	defs    []string
	asserts []string
	n       int
}

var _ bitvec.Algebra[Term] = (*Builder)(nil)

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Declare adds a free bit-vector constant of the given width.
func (b *Builder) Declare(name string, bits int) Term {
	b.decls = append(b.decls, fmt.Sprintf("(declare-const %s (_ BitVec %d))", name, bits))
	return Term(name)
}

// Concat joins two 32-bit terms into a 64-bit term, hi first.
func (b *Builder) Concat(hi, lo Term) Term {
	return b.define(fmt.Sprintf("(concat %s %s)", hi, lo))
}

// AssertEqual constrains t to equal v.
func (b *Builder) AssertEqual(t Term, v uint64) {
	b.asserts = append(b.asserts, fmt.Sprintf("(assert (= %s %s))", t, b.Const(v)))
}

func (b *Builder) Const(v uint64) Term {
	return Term(fmt.Sprintf("#x%016x", v))
}

func (b *Builder) Xor(x, y Term) Term { return b.op("bvxor", x, y) }

func (b *Builder) Add(x, y Term) Term { return b.op("bvadd", x, y) }

func (b *Builder) Mul(x, y Term) Term { return b.op("bvmul", x, y) }

func (b *Builder) Shl(x Term, n uint) Term { return b.op("bvshl", x, b.Const(uint64(n))) }

func (b *Builder) Shr(x Term, n uint) Term { return b.op("bvlshr", x, b.Const(uint64(n))) }

// String renders declarations, definitions and assertions.
func (b *Builder) String() string {
	var sb strings.Builder

	for _, group := range [][]string{b.decls, b.defs, b.asserts} {
		for _, line := range group {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func (b *Builder) op(name string, x, y Term) Term {
	return b.define(fmt.Sprintf("(%s %s %s)", name, x, y))
}

func (b *Builder) define(expr string) Term {
	name := fmt.Sprintf("t%d", b.n)
	b.n++
	b.defs = append(b.defs, fmt.Sprintf("(define-fun %s () (_ BitVec 64) %s)", name, expr))

	return Term(name)
}
