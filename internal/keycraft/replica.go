package keycraft

import (
	"math"
	"math/rand"
	"sort"
)

// annealTempScale tunes the polynomial approximation to exp(x) used for the
// Metropolis acceptance test: (1+x/scale)^scale approaches e^x as scale
// grows. With scale 256 the power is taken by eight squarings.
const annealTempScale = 256.0

// fastExp is a cheap polynomial approximation to exp(x), accurate enough
// for Metropolis acceptance sampling; the consistency oracle does not
// depend on the approximation's precision.
func fastExp(x float64) float64 {
	v := 1 + x/annealTempScale
	for i := 0; i < 8; i++ {
		v *= v
	}
	return v
}

// Replica owns one point in the layout search space at a fixed
// temperature. Tables is a shared, read-only reference: Replica never
// clones the cost tables, only its own mutable state.
type Replica struct {
	Tables *Tables

	Layout    Layout
	PosMap    *PosMap
	Score     float64
	LeftLoad  float64
	TotalFreq float64

	Temperature float64

	CurrentLimit int
	LimitFast    int
	LimitSlow    int

	Rng *rand.Rand

	PinnedSlots    map[int]uint16
	LockedIndices  []int
	Critical       []CriticalBigram

	MutationWeights []float64
	TotalWeight     float64
}

// NewReplica builds a replica: parses pins, resamples a tiered initial
// layout until it passes the critical-bigram sanity check, scores it once,
// and computes the initial mutation-weight distribution.
func NewReplica(t *Tables, temperature float64, seed int64, limitFast, limitSlow int, pinnedSpec string, tiers CharTiers, critical []CriticalBigram) (*Replica, error) {
	pins, err := ParsePins(pinnedSpec)
	if err != nil {
		return nil, err
	}

	locked := make([]int, 0, len(pins))
	for idx := range pins {
		locked = append(locked, idx)
	}
	sort.Ints(locked)

	r := &Replica{
		Tables:        t,
		Temperature:   temperature,
		LimitFast:     limitFast,
		LimitSlow:     limitSlow,
		Rng:           rand.New(rand.NewSource(seed)),
		PinnedSlots:   pins,
		LockedIndices: locked,
		Critical:      critical,
	}

	for {
		r.Layout = GenerateTieredLayout(r.Rng, tiers, t.Geometry, t.KeyCount, pins)
		r.PosMap = BuildPosMap(r.Layout)
		if !FailsSanity(r.PosMap, critical, t.Geometry) {
			break
		}
	}

	if temperature > 10 {
		r.CurrentLimit = limitFast
	} else {
		r.CurrentLimit = limitSlow
	}

	base, left, total := ScoreFullDetailed(t, r.PosMap, r.CurrentLimit)
	r.LeftLoad = left
	r.TotalFreq = total
	r.Score = base + ImbalancePenalty(t.Weights, left, total)

	r.UpdateMutationWeights()

	return r, nil
}

// Inject overwrites the layout with an externally supplied one, rebuilds
// the position map, rescores fully, and resets the mutation-weight cache.
func (r *Replica) Inject(layout Layout) {
	r.Layout = layout.Clone()
	r.PosMap = BuildPosMap(r.Layout)

	base, left, total := ScoreFullDetailed(r.Tables, r.PosMap, r.CurrentLimit)
	r.Score = base + ImbalancePenalty(r.Tables.Weights, left, total)
	r.LeftLoad = left
	r.TotalFreq = total

	r.UpdateMutationWeights()
}

// UpdateMutationWeights recomputes the per-slot mutation-weight vector from
// the current per-slot cost attribution: weight[i] = (cost[i]+1)^1.5, zero
// for locked slots.
func (r *Replica) UpdateMutationWeights() {
	costs := r.Tables.ElementCosts(r.Layout, r.PosMap)
	if r.MutationWeights == nil {
		r.MutationWeights = make([]float64, len(costs))
	}

	isLocked := make(map[int]bool, len(r.LockedIndices))
	for _, i := range r.LockedIndices {
		isLocked[i] = true
	}

	var sum float64
	for i, c := range costs {
		if isLocked[i] {
			r.MutationWeights[i] = 0
		} else {
			r.MutationWeights[i] = math.Pow(c+1, 1.5)
		}
		sum += r.MutationWeights[i]
	}
	r.TotalWeight = sum
}

// PickWeightedIndex samples a slot index proportional to MutationWeights,
// falling back to uniform sampling when the weight sum is non-positive or
// floating-point drift leaves the target unmatched.
func (r *Replica) PickWeightedIndex() int {
	k := r.Tables.KeyCount
	if r.TotalWeight <= 0 {
		return r.Rng.Intn(k)
	}

	target := r.Rng.Float64() * r.TotalWeight
	var current float64
	for i, w := range r.MutationWeights {
		current += w
		if current >= target {
			return i
		}
	}
	return r.Rng.Intn(k)
}

func (r *Replica) isLocked(idx int) bool {
	for _, i := range r.LockedIndices {
		if i == idx {
			return true
		}
	}
	return false
}

// TryLNSMove selects nKeys distinct, unlocked slots by weighted sampling,
// enumerates every permutation of their characters, and commits the best
// permutation that improves on the current score. Returns false if no
// improving permutation was found, or if a valid slot set could not be
// sampled within the attempt budget.
func (r *Replica) TryLNSMove(nKeys int) bool {
	k := r.Tables.KeyCount
	if nKeys < 3 || nKeys > 5 || nKeys > k {
		return false
	}

	indices := make([]int, 0, nKeys)
	attempts := 0
	for len(indices) < nKeys && attempts < 50 {
		idx := r.PickWeightedIndex()
		if !containsInt(indices, idx) && !r.isLocked(idx) {
			indices = append(indices, idx)
		}
		attempts++
	}
	if len(indices) != nKeys {
		return false
	}

	charsOriginal := make([]uint16, nKeys)
	for i, idx := range indices {
		charsOriginal[i] = r.Layout[idx]
	}

	bestScore := r.Score
	bestPerm := identityPerm(nKeys)
	foundBetter := false

	permute(nKeys, func(perm []int) {
		for slotK, charKIdx := range perm {
			charVal := charsOriginal[charKIdx]
			targetSlot := indices[slotK]
			if charVal != EmptyCode {
				r.PosMap[charVal] = uint8(targetSlot)
			}
		}

		rawScore, left, _ := ScoreFullDetailed(r.Tables, r.PosMap, r.CurrentLimit)
		total := rawScore + ImbalancePenalty(r.Tables.Weights, left, r.TotalFreq)

		if !math.IsNaN(total) && !math.IsInf(total, 0) && total < bestScore {
			bestScore = total
			bestPerm = append(bestPerm[:0], perm...)
			foundBetter = true
		}
	})

	for slotK, charKIdx := range bestPerm {
		charVal := charsOriginal[charKIdx]
		targetSlot := indices[slotK]
		r.Layout[targetSlot] = charVal
	}

	for _, charVal := range charsOriginal {
		if charVal == EmptyCode {
			continue
		}
		for _, idx := range indices {
			if r.Layout[idx] == charVal {
				r.PosMap[charVal] = uint8(idx)
				break
			}
		}
	}

	if foundBetter {
		_, left, _ := ScoreFullDetailed(r.Tables, r.PosMap, r.CurrentLimit)
		r.LeftLoad = left
		r.Score = bestScore
		return true
	}

	return false
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func identityPerm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// permute calls visit once per permutation of [0, n), using Heap's
// algorithm; visit must not retain the slice it is given.
func permute(n int, visit func([]int)) {
	p := identityPerm(n)
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			visit(p)
			return
		}
		for i := 0; i < k; i++ {
			generate(k - 1)
			if k%2 == 0 {
				p[i], p[k-1] = p[k-1], p[i]
			} else {
				p[0], p[k-1] = p[k-1], p[0]
			}
		}
	}
	generate(n)
}

// Evolve runs steps Metropolis iterations: periodic mutation-weight
// refresh, an occasional LNS move in the cold regime, otherwise a
// weighted-sampled swap proposal accepted via the Metropolis criterion and
// vetoed if it violates the critical-bigram sanity check.
func (r *Replica) Evolve(steps int) (accepted, attempted int) {
	targetLimit := r.LimitSlow
	if r.Temperature > 10 {
		targetLimit = r.LimitFast
	}
	if targetLimit != r.CurrentLimit {
		r.CurrentLimit = targetLimit
		base, left, _ := ScoreFullDetailed(r.Tables, r.PosMap, targetLimit)
		r.Score = base + ImbalancePenalty(r.Tables.Weights, left, r.TotalFreq)
	}

	refreshRate := 1000
	if r.Temperature > 100 {
		refreshRate = 100
	}

	k := r.Tables.KeyCount

	for step := 0; step < steps; step++ {
		if step%refreshRate == 0 {
			r.UpdateMutationWeights()
		}

		if r.Temperature < 5 && r.Rng.Float64() < 0.002 {
			if r.TryLNSMove(4) {
				accepted++
			}
			continue
		}

		idxA := r.PickWeightedIndex()
		if r.isLocked(idxA) {
			idxA = r.Rng.Intn(k)
		}
		idxB := r.Rng.Intn(k)

		if idxA == idxB || r.isLocked(idxA) || r.isLocked(idxB) {
			continue
		}

		deltaBase, deltaLoad := Delta(r.Tables, r.Layout, r.PosMap, idxA, idxB, r.Temperature, r.CurrentLimit)
		if math.IsInf(deltaBase, 0) || math.IsNaN(deltaBase) || math.IsNaN(deltaLoad) {
			continue
		}

		oldImbalance := ImbalancePenalty(r.Tables.Weights, r.LeftLoad, r.TotalFreq)
		oldBase := r.Score - oldImbalance
		newBase := oldBase + deltaBase
		newLeftLoad := r.LeftLoad + deltaLoad
		newTotal := newBase + ImbalancePenalty(r.Tables.Weights, newLeftLoad, r.TotalFreq)

		totalDelta := newTotal - r.Score
		if math.IsNaN(totalDelta) || math.IsInf(totalDelta, 0) {
			continue
		}

		if totalDelta < 0 || r.Rng.Float64() < fastExp(-totalDelta/r.Temperature) {
			ApplySwap(r.Layout, r.PosMap, idxA, idxB)
			charA, charB := r.Layout[idxA], r.Layout[idxB]

			risky := false
			if charA < 256 && r.Tables.CriticalMask[charA] {
				risky = true
			}
			if charB < 256 && r.Tables.CriticalMask[charB] {
				risky = true
			}

			if risky && FailsSanity(r.PosMap, r.Critical, r.Tables.Geometry) {
				ApplySwap(r.Layout, r.PosMap, idxA, idxB)
			} else {
				r.Score = newTotal
				r.LeftLoad = newLeftLoad
				accepted++
			}
		}
	}

	return accepted, steps
}
