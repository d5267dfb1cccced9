package keycraft

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Bigram is a sequence of two consecutive characters observed in a corpus.
type Bigram [2]rune

// String returns the string representation of the bigram.
func (b Bigram) String() string { return string(b[:]) }

// MarshalText implements encoding.TextMarshaler.
func (b Bigram) MarshalText() ([]byte, error) { return []byte(string(b[:])), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bigram) UnmarshalText(text []byte) error {
	runes := []rune(string(text))
	if len(runes) != 2 {
		return fmt.Errorf("invalid Bigram length: %d", len(runes))
	}
	b[0], b[1] = runes[0], runes[1]
	return nil
}

// Trigram is a sequence of three consecutive characters observed in a corpus.
type Trigram [3]rune

// String returns the string representation of the trigram.
func (t Trigram) String() string { return string(t[:]) }

// MarshalText implements encoding.TextMarshaler.
func (t Trigram) MarshalText() ([]byte, error) { return []byte(string(t[:])), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Trigram) UnmarshalText(text []byte) error {
	runes := []rune(string(text))
	if len(runes) != 3 {
		return fmt.Errorf("invalid Trigram length: %d", len(runes))
	}
	t[0], t[1], t[2] = runes[0], runes[1], runes[2]
	return nil
}

// CorpusStats accumulates raw character, bigram, and trigram frequencies
// from text. It is the input the cost-table builder folds into the fixed
// 256-wide frequency arrays and the CSR n-gram index; it does not itself
// apply case-folding, so the same text fed twice with different case
// produces distinct map keys here.
type CorpusStats struct {
	CharFreqs    map[rune]uint64
	BigramFreqs  map[Bigram]uint64
	TrigramFreqs map[Trigram]uint64

	TotalChars    uint64
	TotalBigrams  uint64
	TotalTrigrams uint64
}

// NewCorpusStats returns an empty CorpusStats ready for accumulation.
func NewCorpusStats() *CorpusStats {
	return &CorpusStats{
		CharFreqs:    make(map[rune]uint64),
		BigramFreqs:  make(map[Bigram]uint64),
		TrigramFreqs: make(map[Trigram]uint64),
	}
}

// AddText walks the text, accumulating unigram, bigram, and trigram counts.
// Whitespace resets the sliding window so n-grams never span a word break.
func (c *CorpusStats) AddText(text string) {
	var prev1, prev2 rune
	havePrev1, havePrev2 := false, false

	for _, r := range text {
		if unicode.IsSpace(r) {
			havePrev1, havePrev2 = false, false
			continue
		}

		c.CharFreqs[r]++
		c.TotalChars++

		if havePrev1 {
			c.BigramFreqs[Bigram{prev1, r}]++
			c.TotalBigrams++

			if havePrev2 {
				c.TrigramFreqs[Trigram{prev2, prev1, r}]++
				c.TotalTrigrams++
			}
		}

		prev2, havePrev2 = prev1, havePrev1
		prev1, havePrev1 = r, true
	}
}

// AddLines feeds each non-blank line of text through AddText, matching the
// line-oriented accumulation a corpus loader performs.
func (c *CorpusStats) AddLines(lines []string) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.AddText(line)
	}
}

// ActiveChars returns the ascending sorted list of character codes with
// non-zero frequency in CharFreqs, BigramFreqs, or TrigramFreqs.
func (c *CorpusStats) ActiveChars() []rune {
	seen := make(map[rune]struct{})
	for r := range c.CharFreqs {
		seen[r] = struct{}{}
	}
	for b := range c.BigramFreqs {
		seen[b[0]] = struct{}{}
		seen[b[1]] = struct{}{}
	}
	for t := range c.TrigramFreqs {
		seen[t[0]] = struct{}{}
		seen[t[1]] = struct{}{}
		seen[t[2]] = struct{}{}
	}

	out := make([]rune, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
