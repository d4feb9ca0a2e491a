// Package colset implements ColumnSet, an immutable bit-set over column
// ordinals used throughout the profiler to identify a subset of columns.
package colset

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxColumns is the largest schema width the profiler accepts. ColumnSet
// packs ordinals into a single uint64, so N is capped here rather than
// silently wrapping.
const MaxColumns = 64

// ColumnSet is an immutable bit-set over column ordinals [0, N). Two
// ColumnSets are equal iff their raw bits are equal, which makes ColumnSet
// usable directly as a map key.
type ColumnSet uint64

// Empty is the ColumnSet with no members.
const Empty ColumnSet = 0

// Of builds a ColumnSet from a list of column ordinals.
func Of(ordinals ...int) ColumnSet {
	var s ColumnSet
	for _, o := range ordinals {
		s = s.Set(o)
	}
	return s
}

// Set returns a ColumnSet with ordinal o added.
func (s ColumnSet) Set(o int) ColumnSet {
	return s | (1 << uint(o))
}

// Clear returns a ColumnSet with ordinal o removed.
func (s ColumnSet) Clear(o int) ColumnSet {
	return s &^ (1 << uint(o))
}

// Has reports whether ordinal o is a member of s.
func (s ColumnSet) Has(o int) bool {
	return s&(1<<uint(o)) != 0
}

// Len returns the number of members (the set's cardinality as a subset,
// not to be confused with Space.cardinality, the observed value count).
func (s ColumnSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// IsEmpty reports whether s has no members.
func (s ColumnSet) IsEmpty() bool {
	return s == Empty
}

// Subset reports whether s is a subset of other (s ⊆ other).
func (s ColumnSet) Subset(other ColumnSet) bool {
	return s&other == s
}

// StrictSubset reports whether s is a proper subset of other (s ⊊ other).
func (s ColumnSet) StrictSubset(other ColumnSet) bool {
	return s != other && s.Subset(other)
}

// Union returns the union of s and other.
func (s ColumnSet) Union(other ColumnSet) ColumnSet {
	return s | other
}

// Difference returns the members of s not in other (s \ other).
func (s ColumnSet) Difference(other ColumnSet) ColumnSet {
	return s &^ other
}

// Members returns the ordinals of s in ascending order.
func (s ColumnSet) Members() []int {
	members := make([]int, 0, s.Len())
	for rest := uint64(s); rest != 0; {
		o := bits.TrailingZeros64(rest)
		members = append(members, o)
		rest &= rest - 1
	}
	return members
}

// Single returns the sole member of a singleton ColumnSet. Only valid when
// s.Len() == 1; callers must check arity first.
func (s ColumnSet) Single() int {
	return bits.TrailingZeros64(uint64(s))
}

// String renders the set as "{i,j,k}" in ascending order, e.g. "{0,2}".
func (s ColumnSet) String() string {
	members := s.Members()
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// PowerSet enumerates every subset of the first n column ordinals,
// including the empty set, in ascending numeric order of the underlying
// bit-set. Used by the pass controller when 2^n is small enough that the
// whole search space fits in one initial frontier.
func PowerSet(n int) []ColumnSet {
	total := 1 << uint(n)
	sets := make([]ColumnSet, total)
	for i := 0; i < total; i++ {
		sets[i] = ColumnSet(i)
	}
	return sets
}
