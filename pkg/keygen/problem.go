package keygen

import (
	"errors"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
	"github.com/mahdiidarabi/froggy-keygen/internal/serial"
)

var (
	// ErrBackendUnavailable is returned when a solver backend cannot run,
	// typically because the z3 binary is missing.
	ErrBackendUnavailable = errors.New("keygen: solver backend unavailable")

	// ErrUnknown is returned by a backend that gave up, for example on its
	// attempt timeout.
	ErrUnknown = errors.New("keygen: solver gave up")

	// ErrUnsat is returned by a backend that proved the constraint has no
	// solution.
	ErrUnsat = errors.New("keygen: constraint unsatisfiable")

	// ErrNoStrategy is returned when no configured strategy applies to a name.
	ErrNoStrategy = errors.New("keygen: no strategy applies")
)

// Problem is one name to find a serial for.
type Problem struct {
	Name    []byte
	Params  formula.Params
	Derived formula.Derived
}

// NewProblem derives the name constants of name under p.
func NewProblem(p formula.Params, name []byte) Problem {
	return Problem{
		Name:    append([]byte(nil), name...),
		Params:  p,
		Derived: p.Derive(name),
	}
}

// EmptyName reports whether the problem uses the precomputed empty-name
// constants.
func (pr Problem) EmptyName() bool {
	return len(pr.Name) == 0 && pr.Derived == formula.EmptyName
}

// Check re-evaluates the formula forward for a.
func (pr Problem) Check(a Assignment) bool {
	return formula.Verify(pr.Params, pr.Derived, a.Half1, a.Half2)
}

// Assignment is a candidate serial as two 64-bit halves. Backends produce
// assignments; nothing trusts one until Problem.Check accepts it.
type Assignment struct {
	Half1 uint64
	Half2 uint64
}

// Serial renders the assignment in XXXXXXXX-XXXXXXXX-XXXXXXXX-XXXXXXXX form.
func (a Assignment) Serial() string {
	return serial.Render(a.Half1, a.Half2)
}

// SolveResult contains the outcome of a search. A result that is not Found
// is a normal outcome, not an error.
type SolveResult struct {
	Name     string        `json:"name"`              // Name the serial was generated for
	Serial   string        `json:"serial,omitempty"`  // Rendered serial, empty unless Found
	Half1    uint64        `json:"-"`                 // First serial half
	Half2    uint64        `json:"-"`                 // Second serial half
	Found    bool          `json:"found"`             // Whether a serial was found
	Verified bool          `json:"verified"`          // Whether the serial passed forward evaluation
	Strategy string        `json:"strategy"`          // Strategy that produced the serial
	Backend  string        `json:"backend,omitempty"` // Backend that produced the serial, if any
	Seed     uint32        `json:"seed,omitempty"`    // Seed of the successful attempt
	Tier     int           `json:"tier,omitempty"`    // Timeout tier of the successful attempt, from 0
	Attempts int           `json:"attempts"`          // Backend attempts made
	Elapsed  time.Duration `json:"elapsed_ns"`        // Wall time of the search
}

// found fills the serial fields of r from a verified assignment.
func (r *SolveResult) found(a Assignment) *SolveResult {
	r.Serial = a.Serial()
	r.Half1, r.Half2 = a.Half1, a.Half2
	r.Found = true
	r.Verified = true

	return r
}
