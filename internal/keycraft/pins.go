package keycraft

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePins parses a "idx:char,idx:char,..." pin specification into a
// sparse slot->code map. An empty string yields no pins.
func ParsePins(spec string) (map[int]uint16, error) {
	pins := make(map[int]uint16)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return pins, nil
	}

	for entry := range strings.SplitSeq(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid pin entry %q", entry)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid pin slot %q: %w", parts[0], err)
		}
		chars := []rune(parts[1])
		if len(chars) != 1 {
			return nil, fmt.Errorf("invalid pin character %q", parts[1])
		}
		c := chars[0]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		pins[idx] = uint16(c)
	}

	return pins, nil
}

// CriticalBigram is a pair of character codes whose same-hand-same-finger
// placement disqualifies a layout outright, regardless of its cost.
type CriticalBigram [2]uint16

// FailsSanity reports whether any critical bigram's two characters, when
// both are present in pm, land on the same hand and finger.
func FailsSanity(pm *PosMap, critical []CriticalBigram, g *Geometry) bool {
	for _, pair := range critical {
		p1 := pm[pair[0]]
		p2 := pm[pair[1]]
		if p1 == KeyNotFound || p2 == KeyNotFound {
			continue
		}

		k1, k2 := &g.Keys[p1], &g.Keys[p2]
		if k1.Hand == k2.Hand && k1.Finger == k2.Finger {
			return true
		}
	}
	return false
}
