package formula

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mahdiidarabi/froggy-keygen/internal/mix"
	"github.com/mahdiidarabi/froggy-keygen/internal/namehash"
)

// Constants extracted from the target binary.
const (
	DefaultForwardXor uint64 = 0xA3B1957C4D2E1901 // name hash -> A (v29)
	DefaultReverseXor uint64 = 0xC0D0E0F112233445 // reversed name hash -> B (v47)
	DefaultK1         uint64 = 0x1337F00DCAFEBABE
	DefaultK2         uint64 = 0x2EA07040ACDB444C
	DefaultK3         uint64 = 0x56E57F5F77891A00
	DefaultTarget     uint64 = 0xB9229933597558C9
)

var errEvenMultiplier = errors.New("multiplier must be odd")

// Params is the complete table of constants the formula depends on.
type Params struct {
	HashOffset uint64
	HashPrime  uint64
	Mix        mix.Constants
	ForwardXor uint64
	ReverseXor uint64
	K1         uint64
	K2         uint64
	K3         uint64
	Target     uint64
}

// DefaultParams returns the constants of the reconstructed validator.
func DefaultParams() Params {
	return Params{
		HashOffset: namehash.DefaultOffset,
		HashPrime:  namehash.DefaultPrime,
		Mix:        mix.DefaultConstants(),
		ForwardXor: DefaultForwardXor,
		ReverseXor: DefaultReverseXor,
		K1:         DefaultK1,
		K2:         DefaultK2,
		K3:         DefaultK3,
		Target:     DefaultTarget,
	}
}

// Validate reports whether the multipliers are usable. Even multipliers
// would make the mixer lossy and the exact inverses undefined.
func (p Params) Validate() error {
	for _, m := range []struct {
		name string
		v    uint64
	}{
		{"mix.p", p.Mix.P},
		{"mix.q", p.Mix.Q},
		{"hash_prime", p.HashPrime},
	} {
		if m.v&1 == 0 {
			return fmt.Errorf("%s %#x: %w", m.name, m.v, errEvenMultiplier)
		}
	}

	return nil
}

// Word is a 64-bit constant written as a hex (0x...) or decimal string in
// parameter files. Underscores are allowed as digit separators.
type Word uint64

func (w Word) String() string {
	return fmt.Sprintf("0x%016X", uint64(w))
}

// MarshalText implements encoding.TextMarshaler.
func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Word) UnmarshalText(b []byte) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid 64-bit constant %q: %w", b, err)
	}

	*w = Word(v)

	return nil
}

// UnmarshalYAML reads the raw scalar so that YAML's own integer resolution
// never sees values above MaxInt64.
func (w *Word) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar constant", value.Line)
	}

	return w.UnmarshalText([]byte(value.Value))
}

// paramsFile mirrors Params with optional fields so a file can override a
// subset of the defaults.
type paramsFile struct {
	Hash struct {
		Offset *Word `yaml:"offset"`
		Prime  *Word `yaml:"prime"`
	} `yaml:"hash"`
	Mix struct {
		P *Word `yaml:"p"`
		Q *Word `yaml:"q"`
	} `yaml:"mix"`
	ForwardXor *Word `yaml:"forward_xor"`
	ReverseXor *Word `yaml:"reverse_xor"`
	K1         *Word `yaml:"k1"`
	K2         *Word `yaml:"k2"`
	K3         *Word `yaml:"k3"`
	Target     *Word `yaml:"target"`
}

// ParseParams overlays the YAML document b onto the defaults.
//
// Example:
//
//	hash:
//	  offset: 0x14650FB0739D0383
//	target: 0xB9229933597558C9
func ParseParams(b []byte) (Params, error) {
	var f paramsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Params{}, fmt.Errorf("failed to parse params: %w", err)
	}

	p := DefaultParams()
	for _, o := range []struct {
		src *Word
		dst *uint64
	}{
		{f.Hash.Offset, &p.HashOffset},
		{f.Hash.Prime, &p.HashPrime},
		{f.Mix.P, &p.Mix.P},
		{f.Mix.Q, &p.Mix.Q},
		{f.ForwardXor, &p.ForwardXor},
		{f.ReverseXor, &p.ReverseXor},
		{f.K1, &p.K1},
		{f.K2, &p.K2},
		{f.K3, &p.K3},
		{f.Target, &p.Target},
	} {
		if o.src != nil {
			*o.dst = uint64(*o.src)
		}
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}

	return p, nil
}

// LoadParams reads a parameter file from path.
func LoadParams(path string) (Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read params: %w", err)
	}

	return ParseParams(b)
}
