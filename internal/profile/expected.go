package profile

import "math"

// expectedCardinality predicts the cardinality of s under an
// independence-style model built from the cardinalities of its proper
// sub-combinations (§4.E). rowCount is the run's captured row count;
// singletons holds one Space per column ordinal (nil if not yet
// evaluated).
func expectedCardinality(s *Space, poset *partialOrder, singletons []*Space, rowCount int64) float64 {
	switch s.Columns.Len() {
	case 0:
		return 1
	case 1:
		return float64(rowCount)
	}

	members := s.Columns.Members()
	best := math.Inf(1)
	found := false

	for _, i := range members {
		a, aok := singletonCardinality(singletons, i)
		rest := s.Columns.Clear(i)
		b, bok := poset.get(rest)
		if !aok || !bok {
			continue
		}
		found = true
		v := expectedPair(rowCount, a, b.Cardinality)
		if v < best {
			best = v
		}
	}

	if !found {
		return float64(rowCount)
	}
	return best
}

func singletonCardinality(singletons []*Space, ordinal int) (int64, bool) {
	if ordinal < 0 || ordinal >= len(singletons) || singletons[ordinal] == nil {
		return 0, false
	}
	return singletons[ordinal].Cardinality, true
}

// expectedPair implements f(R,a,b): the expected number of distinct values
// among R independent draws from a combined domain of size a*b, using the
// usual urn-style attenuation: R * (1 - (1-1/R)^(a*b)). It is
// non-decreasing in a and b and f(R,a,b) <= min(R, a*b); f(R,a,R) and
// f(R,a,1) come out slightly below R and a respectively.
func expectedPair(rowCount, a, b int64) float64 {
	if rowCount <= 0 {
		return 0
	}
	r := float64(rowCount)
	domain := float64(a) * float64(b)
	return r * (1 - math.Pow(1-1/r, domain))
}

// surprise computes (expected-observed)/max(expected,observed); positive
// when the combination is less varied than independence predicts.
func surprise(s *Space) float64 {
	expected := s.ExpectedCardinality
	observed := float64(s.Cardinality)
	max := expected
	if observed > max {
		max = observed
	}
	if max <= 0 {
		return 0
	}
	return (expected - observed) / max
}
