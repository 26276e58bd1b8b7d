package match

// Similarity returns a normalized Levenshtein similarity in [0, 1]:
// 1.0 only for equal strings, symmetric in its arguments.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	dist := levenshtein(a, b)
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return 1.0 - float64(dist)/float64(longer)
}

// levenshtein computes edit distance with the two-row dynamic program.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
