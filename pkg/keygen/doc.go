// Package keygen generates and checks serials for the Froggy name/serial
// validator.
//
// A serial is four groups of eight hex digits read as two 64-bit halves.
// The validator hashes the name and its byte reversal, mixes both with the
// halves through a fixed sequence of avalanche stages, and accepts when the
// result equals a fixed target. Generating a serial means solving that
// equation for the halves.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/froggy-keygen/pkg/keygen"
//
//	client := keygen.NewClient()
//
//	result, err := client.Generate(ctx, "Froggy")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if result.Found {
//	    fmt.Printf("Serial: %s\n", result.Serial)
//	}
//
// # Backends
//
// The constraint search runs on a Backend. Z3Backend hands the equation to
// an external z3 process as an SMT-LIB2 bit-vector problem. NativeBackend
// solves it in process: both mixers are bijections with exact inverses, and
// the remaining relation is solved bit by bit with the addition carry.
//
//	strategy := keygen.NewConstraintStrategy(keygen.NewNativeBackend()).
//	    WithConfig(keygen.SearchConfig{
//	        Seeds:   []uint32{1, 2, 3},
//	        Tiers:   []time.Duration{5 * time.Second},
//	        Workers: 4,
//	    })
//
//	client := keygen.NewClient().WithStrategy(strategy)
//
// # Custom Strategies
//
// Implement the Strategy interface to plug in another search:
//
//	type MyStrategy struct{}
//
//	func (s *MyStrategy) Search(ctx context.Context, pr keygen.Problem) (*keygen.SolveResult, error) {
//	    // Your custom search logic
//	}
//
//	func (s *MyStrategy) Name() string {
//	    return "MyCustomStrategy"
//	}
//
// The client re-verifies every serial a strategy returns and never reports
// one that fails the forward formula.
package keygen
