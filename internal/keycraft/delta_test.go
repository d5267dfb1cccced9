package keycraft

import (
	"math"
	"testing"
)

func TestDelta_IdentitySwapIsZero(t *testing.T) {
	tables := buildTestTables(t)
	layout := Layout{'a', 'b', 'c', 0, 0, 0}
	pm := BuildPosMap(layout)

	d, dl := Delta(tables, layout, pm, 2, 2, 1.0, 1<<30)
	if d != 0 || dl != 0 {
		t.Fatalf("Delta(a, a) = (%v, %v), want (0, 0)", d, dl)
	}
}

func TestDelta_MatchesBatchRescore(t *testing.T) {
	tables := buildTestTables(t)
	layout := Layout{'a', 'b', 'c', 0, 0, 0}
	pm := BuildPosMap(layout)

	score, _, _ := ScoreFullDetailed(tables, pm, 1<<30)

	pairs := [][2]int{{0, 1}, {0, 2}, {1, 2}, {0, 3}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		d, _ := Delta(tables, layout, pm, a, b, 1000.0, 1<<30)
		if math.IsInf(d, 1) {
			continue
		}
		if err := tables.VerifyDelta(layout, pm, a, b, score, d, 1e-3); err != nil {
			t.Fatalf("swap (%d,%d): %v", a, b, err)
		}
	}
}

func TestDelta_LowTemperaturePrunesHopelessMoves(t *testing.T) {
	tables := buildTestTables(t)
	layout := Layout{'a', 'b', 'c', 0, 0, 0}
	pm := BuildPosMap(layout)

	// An extremely low temperature shrinks the cutoff window to effectively
	// zero, so any monogram-worsening swap should prune before the trigram
	// pass and report +Inf.
	d, dl := Delta(tables, layout, pm, 0, 2, 0, 1<<30)
	if !math.IsInf(d, 1) {
		t.Skipf("swap did not worsen the monogram term enough to prune at temperature 0: delta=%v", d)
	}
	if dl != 0 {
		t.Fatalf("a pruned move should report zero left-load delta, got %v", dl)
	}
}

func TestDelta_TracksLeftLoadOnCrossHandSwap(t *testing.T) {
	tables := buildTestTables(t)
	layout := Layout{'a', 'b', 0, 'c', 0, 0}
	pm := BuildPosMap(layout)

	// Slot 0 is left hand, slot 3 is right hand: swapping 'a' and 'c' moves
	// load across hands.
	_, dl := Delta(tables, layout, pm, 0, 3, 1000.0, 1<<30)
	if dl == 0 {
		t.Fatalf("expected a non-zero left-load delta for a cross-hand swap")
	}
}

func TestDelta_MatchesBatchRescoreWithRepeatedCharacterBigram(t *testing.T) {
	g := newTestGeometry()
	w := newTestWeights()
	corpus := NewCorpusStats()
	corpus.AddText("aab abb ba")
	tiers := CharTiers{High: "a", Med: "b", Low: "c"}

	tables, err := BuildTables(g, w, tiers, nil, corpus)
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}

	layout := Layout{'a', 'b', 'c', 0, 0, 0}
	pm := BuildPosMap(layout)
	score, _, _ := ScoreFullDetailed(tables, pm, 1<<30)

	pairs := [][2]int{{0, 1}, {0, 2}, {1, 2}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		d, _ := Delta(tables, layout, pm, a, b, 1000.0, 1<<30)
		if math.IsInf(d, 1) {
			continue
		}
		if err := tables.VerifyDelta(layout, pm, a, b, score, d, 1e-3); err != nil {
			t.Fatalf("swap (%d,%d) with repeated-character bigrams 'aa'/'bb' present: %v", a, b, err)
		}
	}
}

func TestImbalancePenalty_WithinAllowedBand(t *testing.T) {
	w := newTestWeights()
	w.MaxHandImbalance = 0.6
	if p := ImbalancePenalty(w, 55, 100); p != 0 {
		t.Fatalf("a 55/100 split is within the allowed band, expected zero penalty, got %v", p)
	}
}

func TestImbalancePenalty_BeyondAllowedBand(t *testing.T) {
	w := newTestWeights()
	w.MaxHandImbalance = 0.55
	p := ImbalancePenalty(w, 90, 100)
	if p <= 0 {
		t.Fatalf("a 90/100 split exceeds the allowed band, expected a positive penalty, got %v", p)
	}
}

func TestImbalancePenalty_ZeroTotalFreq(t *testing.T) {
	w := newTestWeights()
	if p := ImbalancePenalty(w, 0, 0); p != 0 {
		t.Fatalf("zero total frequency should yield zero penalty, got %v", p)
	}
}
