package profile

import "unicode/utf8"

const (
	// fuzzyMaxDistance is the largest edit distance that joins two keys.
	fuzzyMaxDistance = 2
	// fuzzyMaxLenDelta skips comparisons whose lengths differ by more.
	fuzzyMaxLenDelta = 2
	// fuzzyMinAnchorLen: anchors of this many runes or fewer never cluster.
	fuzzyMinAnchorLen = 3
	// fuzzyMaxUnique caps the number of distinct values compared.
	fuzzyMaxUnique = 500
)

// Levenshtein returns the unit-cost insert/delete/substitute distance
// between a and b, counted in runes.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// FuzzyClusters greedily groups near-duplicate keys. Each key is visited
// once in input order and pulls in every later unvisited key within the
// length and distance limits. Only clusters with more than one member are
// returned.
func FuzzyClusters(keys []string) [][]string {
	visited := make([]bool, len(keys))
	lens := make([]int, len(keys))
	for i, k := range keys {
		lens[i] = utf8.RuneCountInString(k)
	}
	var out [][]string
	for i, anchor := range keys {
		if visited[i] {
			continue
		}
		visited[i] = true
		if lens[i] <= fuzzyMinAnchorLen {
			continue
		}
		cluster := []string{anchor}
		for j := i + 1; j < len(keys); j++ {
			if visited[j] {
				continue
			}
			d := lens[i] - lens[j]
			if d < 0 {
				d = -d
			}
			if d > fuzzyMaxLenDelta {
				continue
			}
			if Levenshtein(anchor, keys[j]) <= fuzzyMaxDistance {
				cluster = append(cluster, keys[j])
				visited[j] = true
			}
		}
		if len(cluster) > 1 {
			out = append(out, cluster)
		}
	}
	return out
}
