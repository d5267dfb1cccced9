package keycraft

import (
	"math/rand"
	"sort"
)

// CharTiers groups the three disjoint character pools tiered placement
// draws from. Any character not listed in any pool defaults to low.
type CharTiers struct {
	High string
	Med  string
	Low  string
}

// GenerateTieredLayout builds an initial layout by shuffling each tier's
// character pool and filling prime/med/low slots in spillover order: prime
// slots draw from [high, med], med slots from [med, low], low slots from
// [low, med, high]. Pinned slots and their characters are removed from
// circulation before the pools are built.
func GenerateTieredLayout(rng *rand.Rand, tiers CharTiers, g *Geometry, size int, pins map[int]uint16) Layout {
	layout := make(Layout, size)

	var pinnedChars [256]bool
	for idx, c := range pins {
		if idx < size {
			layout[idx] = c
			if c < 256 {
				pinnedChars[c] = true
			}
		}
	}

	filterPool := func(src string) []uint16 {
		out := make([]uint16, 0, len(src))
		for _, b := range []byte(src) {
			c := uint16(b)
			if c >= 256 || !pinnedChars[c] {
				out = append(out, c)
			}
		}
		return out
	}

	high := filterPool(tiers.High)
	med := filterPool(tiers.Med)
	low := filterPool(tiers.Low)

	rng.Shuffle(len(high), func(i, j int) { high[i], high[j] = high[j], high[i] })
	rng.Shuffle(len(med), func(i, j int) { med[i], med[j] = med[j], med[i] })
	rng.Shuffle(len(low), func(i, j int) { low[i], low[j] = low[j], low[i] })

	pop := func(pool *[]uint16) (uint16, bool) {
		n := len(*pool)
		if n == 0 {
			return 0, false
		}
		c := (*pool)[n-1]
		*pool = (*pool)[:n-1]
		return c, true
	}

	fillSlot := func(slot int, pools ...*[]uint16) {
		if slot >= size || layout[slot] != EmptyCode {
			return
		}
		for _, pool := range pools {
			if c, ok := pop(pool); ok {
				layout[slot] = c
				return
			}
		}
	}

	for _, slot := range g.PrimeSlots {
		fillSlot(slot, &high, &med)
	}
	for _, slot := range g.MedSlots {
		fillSlot(slot, &med, &low)
	}
	for _, slot := range g.LowSlots {
		fillSlot(slot, &low, &med, &high)
	}

	return layout
}

// GenerateGreedyLayout ranks empty slots by physical quality (ascending
// monogram cost, with a small random tiebreak) and characters by corpus
// frequency (descending), then pairs best slot with most frequent
// character. Pinned slots and their characters are excluded from ranking.
func GenerateGreedyLayout(t *Tables, rng *rand.Rand, size int, pins map[int]uint16) Layout {
	layout := make(Layout, size)
	filled := make([]bool, size)
	usedChars := make(map[uint16]bool)

	for idx, c := range pins {
		if idx < size {
			layout[idx] = c
			filled[idx] = true
			usedChars[c] = true
		}
	}

	type slotRank struct {
		idx  int
		cost float64
	}
	ranked := make([]slotRank, 0, size)
	for i := 0; i < size; i++ {
		if filled[i] {
			continue
		}
		cost := t.SlotMonogramCosts[i] + rng.Float64()*0.1
		ranked = append(ranked, slotRank{i, cost})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].cost < ranked[j].cost })

	type charRank struct {
		code uint16
		freq float64
	}
	chars := make([]charRank, 0, len(t.ActiveChars))
	for _, code := range t.ActiveChars {
		if code >= 256 || usedChars[uint16(code)] {
			continue
		}
		chars = append(chars, charRank{uint16(code), t.CharFreqs[code]})
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i].freq > chars[j].freq })

	ci := 0
	for _, sr := range ranked {
		if ci < len(chars) {
			layout[sr.idx] = chars[ci].code
			ci++
		} else {
			layout[sr.idx] = EmptyCode
		}
	}

	return layout
}
