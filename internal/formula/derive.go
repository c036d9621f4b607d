package formula

import (
	"github.com/mahdiidarabi/froggy-keygen/internal/namehash"
)

// Derived holds the two per-name constants fed into the formula, A from the
// name and B from the byte-reversed name.
type Derived struct {
	A uint64
	B uint64
}

// EmptyName is the derived pair of the empty name under DefaultParams.
var EmptyName = Derived{A: 0xB7D49ACC3EB31A82, B: 0xD4B5EF4161BE37C6}

// Derive hashes name (raw bytes, UTF-8 for text) into its derived constants.
func (p Params) Derive(name []byte) Derived {
	if len(name) == 0 && p.defaultNaming() {
		return EmptyName
	}

	return Derived{
		A: namehash.Sum64(p.HashOffset, p.HashPrime, name) ^ p.ForwardXor,
		B: namehash.Sum64(p.HashOffset, p.HashPrime, namehash.Reverse(name)) ^ p.ReverseXor,
	}
}

// DeriveString is Derive for a text name.
func (p Params) DeriveString(name string) Derived {
	return p.Derive([]byte(name))
}

func (p Params) defaultNaming() bool {
	return p.HashOffset == namehash.DefaultOffset &&
		p.HashPrime == namehash.DefaultPrime &&
		p.ForwardXor == DefaultForwardXor &&
		p.ReverseXor == DefaultReverseXor
}
