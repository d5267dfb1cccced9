package keycraft

import "math"

// Delta computes the exact change in total score, plus the change in
// left-hand load, that swapping slots a and b would produce, without
// rescoring the whole layout. temperature gates the early-cutoff pruning;
// limit caps how many CSR trigram entries are walked per character.
//
// Returns (+Inf, 0) if the move is hopeless enough to prune before the
// expensive trigram pass.
func Delta(t *Tables, layout Layout, pm *PosMap, a, b int, temperature float64, limit int) (deltaScore, deltaLeft float64) {
	if a == b {
		return 0, 0
	}

	charA := int(layout[a])
	charB := int(layout[b])
	cutoff := temperature * 50

	deltaScore = monogramDelta(t, a, b, charA, charB)
	if deltaScore > cutoff {
		return math.Inf(1), 0
	}

	deltaScore += bigramDelta(t, pm, a, b, charA, charB)
	if deltaScore > cutoff {
		return math.Inf(1), 0
	}

	deltaScore += trigramDelta(t, pm, a, b, charA, charB, limit)

	g := t.Geometry
	isLeftA := g.Keys[a].Hand == LeftHand
	isLeftB := g.Keys[b].Hand == LeftHand
	if isLeftA != isLeftB {
		if charA < 256 {
			f := t.CharFreqs[charA]
			if isLeftA {
				deltaLeft -= f
			} else {
				deltaLeft += f
			}
		}
		if charB < 256 {
			f := t.CharFreqs[charB]
			if isLeftB {
				deltaLeft -= f
			} else {
				deltaLeft += f
			}
		}
	}

	return deltaScore, deltaLeft
}

func monogramDelta(t *Tables, idxA, idxB, charA, charB int) float64 {
	if charA >= 256 && charB >= 256 {
		return 0
	}

	var freqA, freqB float64
	if charA < 256 {
		freqA = t.CharFreqs[charA]
	}
	if charB < 256 {
		freqB = t.CharFreqs[charB]
	}

	d := (t.SlotMonogramCosts[idxB]-t.SlotMonogramCosts[idxA])*freqA +
		(t.SlotMonogramCosts[idxA]-t.SlotMonogramCosts[idxB])*freqB

	tierSlotA := t.SlotTierMap[idxA]
	tierSlotB := t.SlotTierMap[idxB]
	if charA < 256 {
		tierCharA := t.CharTierMap[charA]
		d -= t.TierPenaltyMatrix[tierCharA][tierSlotA] * freqA
		d += t.TierPenaltyMatrix[tierCharA][tierSlotB] * freqA
	}
	if charB < 256 {
		tierCharB := t.CharTierMap[charB]
		d -= t.TierPenaltyMatrix[tierCharB][tierSlotB] * freqB
		d += t.TierPenaltyMatrix[tierCharB][tierSlotA] * freqB
	}

	return d
}

func bigramDelta(t *Tables, pm *PosMap, idxA, idxB, charA, charB int) float64 {
	if charA >= 256 && charB >= 256 {
		return 0
	}

	k := t.KeyCount
	var d float64

	processNeighbors := func(cMain, idxOld, idxNew int) {
		if cMain >= 256 {
			return
		}
		start, end := t.BigramStarts[cMain], t.BigramStarts[cMain+1]
		for i := start; i < end; i++ {
			other := int(t.BigramsOthers[i])
			if other == charA || other == charB {
				continue
			}
			pOther := pm[other]
			if pOther == KeyNotFound {
				continue
			}
			freq := t.BigramsFreqs[i]
			if t.BigramsSelfFirst[i] {
				cOld := t.FullCostMatrix[idxOld*k+int(pOther)]
				cNew := t.FullCostMatrix[idxNew*k+int(pOther)]
				d += (cNew - cOld) * freq
			} else {
				cOld := t.FullCostMatrix[int(pOther)*k+idxOld]
				cNew := t.FullCostMatrix[int(pOther)*k+idxNew]
				d += (cNew - cOld) * freq
			}
		}
	}

	processNeighbors(charA, idxA, idxB)
	processNeighbors(charB, idxB, idxA)

	cab := t.FullCostMatrix[idxA*k+idxB]
	cba := t.FullCostMatrix[idxB*k+idxA]
	caa := t.FullCostMatrix[idxA*k+idxA]
	cbb := t.FullCostMatrix[idxB*k+idxB]

	if charA < 256 && charB < 256 {
		if freqAB := t.FreqMatrix[charA*256+charB]; freqAB > 0 {
			d += (cba - cab) * freqAB
		}
		if freqBA := t.FreqMatrix[charB*256+charA]; freqBA > 0 {
			d += (cab - cba) * freqBA
		}
	}
	if charA < 256 {
		if freqAA := t.FreqMatrix[charA*256+charA]; freqAA > 0 {
			d += (cbb - caa) * freqAA
		}
	}
	if charB < 256 {
		if freqBB := t.FreqMatrix[charB*256+charB]; freqBB > 0 {
			d += (caa - cbb) * freqBB
		}
	}

	return d
}

func trigramDelta(t *Tables, pm *PosMap, idxA, idxB, charA, charB, limit int) float64 {
	k := t.KeyCount
	kSq := k * k
	var d float64

	process := func(c int, isA bool) {
		if c >= 256 {
			return
		}
		start, end := t.TrigramStarts[c], t.TrigramStarts[c+1]
		length := end - start
		if length > limit {
			length = limit
		}

		for i := start; i < start+length; i++ {
			o1, o2 := int(t.TrigramsOther1[i]), int(t.TrigramsOther2[i])

			if !isA && (o1 == charA || o2 == charA) {
				continue
			}
			// A trigram holding c more than once has one entry per role of c;
			// only the entry for c's earliest position is counted.
			role := t.TrigramsRole[i]
			if (role >= 1 && o1 == c) || (role == 2 && o2 == c) {
				continue
			}

			p1Old, p2Old := pm[o1], pm[o2]
			if p1Old == KeyNotFound || p2Old == KeyNotFound {
				continue
			}

			p1New := int(p1Old)
			switch o1 {
			case charA:
				p1New = idxB
			case charB:
				p1New = idxA
			}
			p2New := int(p2Old)
			switch o2 {
			case charA:
				p2New = idxB
			case charB:
				p2New = idxA
			}

			var pCOld, pCNew int
			if isA {
				pCOld, pCNew = idxA, idxB
			} else {
				pCOld, pCNew = idxB, idxA
			}

			var costOld, costNew float64
			switch t.TrigramsRole[i] {
			case 0:
				costOld = t.TrigramCostTable[pCOld*kSq+int(p1Old)*k+int(p2Old)]
				costNew = t.TrigramCostTable[pCNew*kSq+p1New*k+p2New]
			case 1:
				costOld = t.TrigramCostTable[int(p1Old)*kSq+pCOld*k+int(p2Old)]
				costNew = t.TrigramCostTable[p1New*kSq+pCNew*k+p2New]
			default:
				costOld = t.TrigramCostTable[int(p1Old)*kSq+int(p2Old)*k+pCOld]
				costNew = t.TrigramCostTable[p1New*kSq+p2New*k+pCNew]
			}

			d += (costNew - costOld) * t.TrigramsFreqs[i]
		}
	}

	process(charA, true)
	process(charB, false)
	return d
}

// ScoreFull batch-rescores the layout described by pm from scratch and
// returns the sum of its monogram, bigram, and trigram components; the
// hand-balance penalty is not included. It is the consistency oracle's
// reference implementation. The layout argument is not read.
func ScoreFull(t *Tables, layout Layout, pm *PosMap, limit int) float64 {
	score, _, _ := ScoreFullDetailed(t, pm, limit)
	return score
}

// ScoreFullDetailed is ScoreFull plus the left_load/total_freq aggregates a
// replica needs to track for the hand-balance penalty.
func ScoreFullDetailed(t *Tables, pm *PosMap, limit int) (score, leftLoad, totalFreq float64) {
	k := t.KeyCount

	for _, c1 := range t.ActiveChars {
		p1 := pm[c1]
		if p1 == KeyNotFound || int(p1) >= k {
			continue
		}

		freq := t.CharFreqs[c1]
		totalFreq += freq
		if t.Geometry.Keys[p1].Hand == LeftHand {
			leftLoad += freq
		}

		charTier := t.CharTierMap[c1]
		slotTier := t.SlotTierMap[p1]
		score += t.TierPenaltyMatrix[charTier][slotTier] * freq
		score += t.SlotMonogramCosts[p1] * freq
	}

	for _, c1 := range t.ActiveChars {
		p1 := pm[c1]
		if p1 == KeyNotFound || int(p1) >= k {
			continue
		}
		start, end := t.BigramStarts[c1], t.BigramStarts[c1+1]
		for i := start; i < end; i++ {
			if !t.BigramsSelfFirst[i] {
				continue
			}
			c2 := int(t.BigramsOthers[i])
			p2 := pm[c2]
			if p2 == KeyNotFound || int(p2) >= k {
				continue
			}
			score += t.FullCostMatrix[int(p1)*k+int(p2)] * t.BigramsFreqs[i]
		}
	}

	kSq := k * k
	for _, c1 := range t.ActiveChars {
		p1 := pm[c1]
		if p1 == KeyNotFound || int(p1) >= k {
			continue
		}
		start, end := t.TrigramStarts[c1], t.TrigramStarts[c1+1]
		length := end - start
		if length > limit {
			length = limit
		}
		for i := start; i < start+length; i++ {
			if t.TrigramsRole[i] != 0 {
				continue
			}
			c2, c3 := int(t.TrigramsOther1[i]), int(t.TrigramsOther2[i])
			p2, p3 := pm[c2], pm[c3]
			if p2 == KeyNotFound || p3 == KeyNotFound || int(p2) >= k || int(p3) >= k {
				continue
			}
			cost := t.TrigramCostTable[int(p1)*kSq+int(p2)*k+int(p3)]
			if cost != 0 {
				score += cost * t.TrigramsFreqs[i]
			}
		}
	}

	return score, leftLoad, totalFreq
}

// ImbalancePenalty returns the hand-balance penalty for a given left-hand
// load and total frequency: zero inside the allowed deviation band, else
// the deviation scaled by PenaltyImbalance.
func ImbalancePenalty(w *Weights, leftLoad, totalFreq float64) float64 {
	if totalFreq <= 0 {
		return 0
	}
	ratio := leftLoad / totalFreq
	diff := ratio - 0.5
	if diff < 0 {
		diff = -diff
	}
	allowed := w.AllowedHandImbalanceDeviation()
	if diff > allowed {
		return diff * w.PenaltyImbalance
	}
	return 0
}
