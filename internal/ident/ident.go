// Package ident generates the throwaway identifiers the authorization
// gateway expects on every request. The values carry no meaning; they only
// have to look fresh, so a fast non-cryptographic source is enough.
package ident

import (
	"math/rand/v2"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// New returns a random lowercase-alphanumeric string of length n.
func New(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

// Correlation is the identifier triplet attached to one authorization
// request. Generate a fresh one per request, never reuse.
type Correlation struct {
	Muid string
	Guid string
	Sid  string
}

// NewCorrelation builds a fresh triplet. Muid is UUID-shaped
// (8-4-4-4-12 dash-joined groups) but is not a UUID: no version or
// variant bits are set.
func NewCorrelation() Correlation {
	return Correlation{
		Muid: strings.Join([]string{New(8), New(4), New(4), New(4), New(12)}, "-"),
		Guid: New(32),
		Sid:  New(32),
	}
}
