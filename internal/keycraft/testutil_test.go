package keycraft

// newTestGeometry builds a small 6-key geometry used across package tests:
// two 2-key home rows (left/right), finger 1 (index) and 2 (middle) on the
// home row, finger 1 again one row down and finger 0 (pinky) two rows down
// on the left hand for SFB/scissor coverage.
//
// slot: 0          1          2          3           4           5
// hand: L          L          L          R           R           L
// fin:  1          2          1          1           2           0
// row:  0          0          1          0           0           2
func newTestGeometry() *Geometry {
	keys := []Key{
		{ID: "L0", Hand: LeftHand, Finger: 1, Row: 0, Col: 0, X: 0, Y: 0},
		{ID: "L1", Hand: LeftHand, Finger: 2, Row: 0, Col: 1, X: 1, Y: 0},
		{ID: "L2", Hand: LeftHand, Finger: 1, Row: 1, Col: 0, X: 0, Y: 1},
		{ID: "R0", Hand: RightHand, Finger: 1, Row: 0, Col: 0, X: 0, Y: 0},
		{ID: "R1", Hand: RightHand, Finger: 2, Row: 0, Col: 1, X: 1, Y: 0},
		{ID: "L3", Hand: LeftHand, Finger: 0, Row: 2, Col: 0, X: 0, Y: 2, IsStretch: true},
	}
	return NewGeometry(keys, 0, []int{0, 1, 3, 4}, []int{2}, []int{5})
}

func newTestWeights() *Weights {
	return DefaultWeights()
}

func newTestCorpus() *CorpusStats {
	c := NewCorpusStats()
	c.AddText("aba abc cab")
	return c
}
