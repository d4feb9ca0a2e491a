package profile

import "github.com/kasuganosora/colprofiler/internal/colset"

// partialOrder is a collection of finalized Spaces ordered by subset
// inclusion (s1 ≤ s2 iff s1.Columns ⊆ s2.Columns). It is implemented as a
// flat slice plus a lookup map: insert is an append and each descendants
// query is an O(k) scan, which is the right
// tradeoff as long as the number of finalized Spaces stays in the low
// thousands — true in practice because combinationsPerPass bounds how many
// new Spaces a run produces per pass.
type partialOrder struct {
	spaces []*Space
	bySet  map[colset.ColumnSet]*Space
}

func newPartialOrder() *partialOrder {
	return &partialOrder{bySet: make(map[colset.ColumnSet]*Space)}
}

// add inserts s. Invariant: no two Spaces in one run share a ColumnSet.
func (p *partialOrder) add(s *Space) {
	p.spaces = append(p.spaces, s)
	p.bySet[s.Columns] = s
}

// get returns the Space for cs, if any has been finalized.
func (p *partialOrder) get(cs colset.ColumnSet) (*Space, bool) {
	s, ok := p.bySet[cs]
	return s, ok
}

// descendants returns every existing Space whose ColumnSet is a strict
// subset of s.Columns.
func (p *partialOrder) descendants(s *Space) []*Space {
	var out []*Space
	for _, other := range p.spaces {
		if other.Columns.StrictSubset(s.Columns) {
			out = append(out, other)
		}
	}
	return out
}
