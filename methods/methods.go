package methods

import (
	"strings"

	"github.com/pkg/errors"
)

// Mask is a set of request methods encoded as bit flags
type Mask uint8

// Method is a single request method
type Method string

// Bits of the single methods
const (
	GET    Mask = 1
	POST   Mask = 2
	PUT    Mask = 4
	DELETE Mask = 8
	PATCH  Mask = 16
)

// All holds all known methods
const All = GET | POST | PUT | DELETE | PATCH

var names = []struct {
	bit  Mask
	name Method
}{
	{GET, "GET"},
	{POST, "POST"},
	{PUT, "PUT"},
	{DELETE, "DELETE"},
	{PATCH, "PATCH"},
}

// Union returns the methods contained in a or b
func Union(a, b Mask) Mask {
	return a | b
}

// Intersect returns the methods contained in both a and b
func Intersect(a, b Mask) Mask {
	return a & b
}

// Without returns the methods of a that are not in b
func Without(a, b Mask) Mask {
	return a &^ b
}

// Decode returns the named methods contained in mask, in bit order
func Decode(mask Mask) []Method {
	var out []Method
	for _, n := range names {
		if mask&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// Contains checks if all methods of other are part of m
func (m Mask) Contains(other Mask) bool {
	return m&other == other
}

// String implements the fmt.Stringer interface
func (m Mask) String() string {
	decoded := Decode(m)
	s := make([]string, len(decoded))
	for i, d := range decoded {
		s[i] = string(d)
	}
	return "[" + strings.Join(s, " ") + "]"
}

// Parse returns the Mask for the passed method names; names are case-insensitive
func Parse(methodNames ...string) (Mask, error) {
	var m Mask
	for _, name := range methodNames {
		bit, ok := bitFor(name)
		if !ok {
			return 0, errors.Errorf("unknown method '%s'", name)
		}
		m |= bit
	}
	return m, nil
}

func bitFor(name string) (Mask, bool) {
	upper := Method(strings.ToUpper(strings.TrimSpace(name)))
	for _, n := range names {
		if n.name == upper {
			return n.bit, true
		}
	}
	return 0, false
}
