package keycraft

import "math/rand"

// CrossoverUniform builds a child layout from two parents, preserving p1's
// character multiset exactly. Pins are applied first, then each unpinned
// slot inherits p1's gene with 50% probability if that gene still has
// remaining supply, otherwise it is left for the P2 fill pass, which walks
// p2 left to right taking the next gene with remaining supply.
func CrossoverUniform(p1, p2 Layout, pins map[int]uint16, rng *rand.Rand) Layout {
	n := len(p1)
	child := make(Layout, n)
	filled := make([]bool, n)

	available := make(map[uint16]int, n)
	for _, c := range p1 {
		available[c]++
	}

	for idx, val := range pins {
		if idx >= n {
			continue
		}
		child[idx] = val
		filled[idx] = true
		if available[val] > 0 {
			available[val]--
		}
	}

	for i := 0; i < n; i++ {
		if filled[i] || rng.Intn(2) == 0 {
			continue
		}
		gene := p1[i]
		if available[gene] > 0 {
			child[i] = gene
			filled[i] = true
			available[gene]--
		}
	}

	p2Idx := 0
	for i := 0; i < n; i++ {
		if filled[i] {
			continue
		}
		for p2Idx < n {
			gene := p2[p2Idx]
			p2Idx++
			if available[gene] > 0 {
				child[i] = gene
				available[gene]--
				break
			}
		}
	}

	return child
}
