package keycraft

import "math"

// Hand identifies which hand a key belongs to.
type Hand uint8

const (
	LeftHand  Hand = 0
	RightHand Hand = 1
)

// Key describes one physical key position in a keyboard geometry.
type Key struct {
	ID        string
	Hand      Hand
	Finger    uint8 // 0..4, thumb..pinky depending on convention
	Row       int8
	Col       int8
	X         float64
	Y         float64
	W         float64
	H         float64
	IsStretch bool
}

// Geometry is the full physical description of a keyboard: K keys plus the
// tier slot sets and the home row used for tiered placement and reach-cost
// computation.
type Geometry struct {
	Keys        []Key
	HomeRow     int8
	PrimeSlots  []int
	MedSlots    []int
	LowSlots    []int
	FingerOrigins [2][5][2]float64 // [hand][finger] -> (x, y)
}

// NewGeometry builds a Geometry from keys and tier slot sets, deriving
// finger origins from the home row with a topmost-key fallback per
// hand/finger, as specified for handling sparse or irregular geometries.
func NewGeometry(keys []Key, homeRow int8, prime, med, low []int) *Geometry {
	g := &Geometry{
		Keys:       keys,
		HomeRow:    homeRow,
		PrimeSlots: prime,
		MedSlots:   med,
		LowSlots:   low,
	}
	g.computeFingerOrigins()
	return g
}

// computeFingerOrigins finds, for each (hand, finger), the home-row key's
// (x, y); if no key sits on the home row for that pair, falls back to the
// topmost key (smallest row) found anywhere for that pair. If no key exists
// for the pair at all, the origin stays at the zero value, contributing zero
// reach to a slot no key can ever occupy.
func (g *Geometry) computeFingerOrigins() {
	found := [2][5]bool{}
	topRow := [2][5]int8{}
	for h := range topRow {
		for f := range topRow[h] {
			topRow[h][f] = math.MaxInt8
		}
	}

	for _, k := range g.Keys {
		if int(k.Hand) >= 2 || int(k.Finger) >= 5 {
			continue
		}
		if k.Row == g.HomeRow {
			g.FingerOrigins[k.Hand][k.Finger] = [2]float64{k.X, k.Y}
			found[k.Hand][k.Finger] = true
		}
		if k.Row < topRow[k.Hand][k.Finger] {
			topRow[k.Hand][k.Finger] = k.Row
			if !found[k.Hand][k.Finger] {
				g.FingerOrigins[k.Hand][k.Finger] = [2]float64{k.X, k.Y}
			}
		}
	}
}

// KeyInteraction captures every boolean/geometric feature of an ordered pair
// of slots (i, j) that the cost-table builder and the classifier-dependent
// cost dispatch need.
type KeyInteraction struct {
	IsSameHand     bool
	Finger         uint8
	IsStrongFinger bool

	IsRepeat        bool
	IsSFB           bool
	IsScissor       bool
	IsLateralStretch bool

	IsRollIn  bool
	IsRollOut bool

	RowDiff    int8
	ColDiff    int8
	IsHomeRow  bool

	IsLatStep    bool
	IsStretchCol bool
	IsBotLatSeq  bool
	IsOutward    bool
}

func absI8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

func checkSFB(res *KeyInteraction, k1, k2 *Key) {
	res.IsSFB = true
	res.RowDiff = absI8(k1.Row - k2.Row)
	res.ColDiff = absI8(k1.Col - k2.Col)

	if res.RowDiff == 0 && res.ColDiff == 1 {
		res.IsLatStep = true
	}
	if k1.Row > 1 && k2.Row > 1 && res.ColDiff > 0 {
		res.IsBotLatSeq = true
	}
}

func checkScissors(res *KeyInteraction, k1, k2 *Key, w *Weights) {
	fdiff := int(k1.Finger) - int(k2.Finger)
	if fdiff < 0 {
		fdiff = -fdiff
	}
	rdiff := k1.Row - k2.Row
	if rdiff < 0 {
		rdiff = -rdiff
	}
	if fdiff == 1 && rdiff >= w.ThresholdScissorRowDiff {
		res.IsScissor = true

		topFinger, botFinger := k1.Finger, k2.Finger
		if k1.Row >= k2.Row {
			topFinger, botFinger = k2.Finger, k1.Finger
		}

		for _, pair := range w.ComfortableScissors {
			if pair[0] == topFinger && pair[1] == botFinger {
				res.IsScissor = false
				break
			}
		}
	}
}

func checkRolls(res *KeyInteraction, k1, k2 *Key) {
	switch {
	case k1.Finger > k2.Finger:
		res.IsRollIn = true
	case k1.Finger < k2.Finger:
		res.IsRollOut = true
	}
}

// AnalyzeInteraction classifies the ordered pair of slots (i, j) per
// original_source's physics.rs. Cross-hand pairs return the zero value with
// IsSameHand false.
func AnalyzeInteraction(g *Geometry, i, j int, w *Weights) KeyInteraction {
	var res KeyInteraction
	if i < 0 || j < 0 || i >= len(g.Keys) || j >= len(g.Keys) {
		return res
	}

	k1, k2 := &g.Keys[i], &g.Keys[j]
	if k1.Hand != k2.Hand {
		return res
	}
	res.IsSameHand = true
	res.Finger = k1.Finger
	res.IsStrongFinger = res.Finger == 1 || res.Finger == 2

	if i == j {
		res.IsRepeat = true
		res.IsHomeRow = k1.Row == g.HomeRow
		res.IsStretchCol = k1.IsStretch
		return res
	}

	res.IsOutward = k2.Row < k1.Row
	if k1.IsStretch && !k2.IsStretch {
		res.IsOutward = false
	}
	if !k1.IsStretch && k2.IsStretch {
		res.IsOutward = true
	}

	if k1.Finger == k2.Finger {
		checkSFB(&res, k1, k2)
	} else {
		checkRolls(&res, k1, k2)
		checkScissors(&res, k1, k2, w)

		colDiff := k1.Col - k2.Col
		if colDiff < 0 {
			colDiff = -colDiff
		}
		if k1.Row == k2.Row && colDiff == 1 && (k1.IsStretch || k2.IsStretch) {
			res.IsLateralStretch = true
		}
	}

	return res
}

// FlowAnalysis captures the trigram-level same-hand flow features.
type FlowAnalysis struct {
	Is3HandRun   bool
	IsSkip       bool
	IsRedirect   bool
	IsInwardRoll bool
	IsOutwardRoll bool
}

func sign(v int8) int8 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// AnalyzeFlow classifies the same-hand three-key sequence (k1, k2, k3) per
// original_source's flow.rs.
func AnalyzeFlow(k1, k2, k3 *Key) FlowAnalysis {
	var res FlowAnalysis
	if k1.Hand != k2.Hand || k2.Hand != k3.Hand {
		return res
	}
	res.Is3HandRun = true

	f1, f2, f3 := int8(k1.Finger), int8(k2.Finger), int8(k3.Finger)
	if f1 == f3 && f1 != f2 {
		res.IsSkip = true
	}

	dir1 := f2 - f1
	dir2 := f3 - f2
	if dir1 != 0 && dir2 != 0 {
		s1, s2 := sign(dir1), sign(dir2)
		switch {
		case s1 != s2:
			res.IsRedirect = true
		case s1 < 0:
			res.IsInwardRoll = true
		default:
			res.IsOutwardRoll = true
		}
	}

	return res
}

// WeightedGeoDist is the symmetric, non-negative Euclidean distance between
// slots i and j scaled by lateral/vertical weights; zero for the identity
// pair or for cross-hand pairs (no physical travel between hands).
func WeightedGeoDist(g *Geometry, i, j int, latWeight, vertWeight float64) float64 {
	if i == j {
		return 0
	}
	if i < 0 || j < 0 || i >= len(g.Keys) || j >= len(g.Keys) {
		return 0
	}
	k1, k2 := &g.Keys[i], &g.Keys[j]
	if k1.Hand != k2.Hand {
		return 0
	}
	dx := math.Abs(k1.X-k2.X) * latWeight
	dy := math.Abs(k1.Y-k2.Y) * vertWeight
	return math.Sqrt(dx*dx + dy*dy)
}

// ReachCost is the weighted distance from slot i to its finger's home-row
// origin.
func ReachCost(g *Geometry, i int, latWeight, vertWeight float64) float64 {
	if i < 0 || i >= len(g.Keys) {
		return 0
	}
	k := &g.Keys[i]
	if int(k.Hand) >= 2 || int(k.Finger) >= 5 {
		return 0
	}
	origin := g.FingerOrigins[k.Hand][k.Finger]
	dx := math.Abs(k.X-origin[0]) * latWeight
	dy := math.Abs(k.Y-origin[1]) * vertWeight
	return math.Sqrt(dx*dx + dy*dy)
}
