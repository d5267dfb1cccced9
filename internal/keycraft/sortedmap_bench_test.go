package keycraft

import "testing"

func BenchmarkSortedMap(b *testing.B) {
	sizes := []struct {
		name string
		size int
	}{
		{"100", 100},
		{"1k", 1000},
		{"10k", 10000},
		{"100k", 100000},
	}

	for _, s := range sizes {
		m := make(map[Bigram]uint64, s.size)
		for i := 0; i < s.size; i++ {
			m[Bigram{rune(i % 256), rune((i / 256) % 256)}] = uint64(i)
		}

		b.Run(s.name, func(b *testing.B) {
			for b.Loop() {
				_ = SortedMap(m)
			}
		})
	}
}
