package keycraft

import "testing"

func TestParsePins_Empty(t *testing.T) {
	pins, err := ParsePins("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pins) != 0 {
		t.Fatalf("expected no pins, got %v", pins)
	}
}

func TestParsePins_Valid(t *testing.T) {
	pins, err := ParsePins("0:a, 5:Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pins[0] != uint16('a') {
		t.Fatalf("pins[0] = %v, want 'a'", pins[0])
	}
	if pins[5] != uint16('z') {
		t.Fatalf("pins[5] = %v, want lowercase-folded 'z'", pins[5])
	}
}

func TestParsePins_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"no colon", "0a"},
		{"non-numeric slot", "x:a"},
		{"multi-rune char", "0:ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePins(tt.spec); err == nil {
				t.Fatalf("expected an error for spec %q", tt.spec)
			}
		})
	}
}

func TestFailsSanity_SameHandSameFinger(t *testing.T) {
	g := newTestGeometry()
	l := Layout{'a', 0, 'b', 0, 0, 0}
	pm := BuildPosMap(l)
	critical := []CriticalBigram{{'a', 'b'}}

	if !FailsSanity(pm, critical, g) {
		t.Fatalf("'a' and 'b' share hand and finger (slots 0 and 2), expected a sanity failure")
	}
}

func TestFailsSanity_DifferentFinger(t *testing.T) {
	g := newTestGeometry()
	l := Layout{'a', 'b', 0, 0, 0, 0}
	pm := BuildPosMap(l)
	critical := []CriticalBigram{{'a', 'b'}}

	if FailsSanity(pm, critical, g) {
		t.Fatalf("'a' and 'b' sit on different fingers (slots 0 and 1), expected no sanity failure")
	}
}

func TestFailsSanity_MissingCharacter(t *testing.T) {
	g := newTestGeometry()
	l := Layout{'a', 0, 0, 0, 0, 0}
	pm := BuildPosMap(l)
	critical := []CriticalBigram{{'a', 'z'}}

	if FailsSanity(pm, critical, g) {
		t.Fatalf("a critical pair with an unplaced character should never fail sanity")
	}
}
