package whitelist

// substitutions is the alphabet variants are generated over.
var substitutions = []byte{'A', 'C', 'G', 'T', 'N'}

// mismatches returns every sequence reachable from input by at most distance
// single-base substitutions, mapped to the number of substitutions needed.
// Only positions holding one of the substitution bases are mutated.
func mismatches(input string, distance int) map[string]int {
	toCheck := []string{input}
	seen := make(map[string]int) // variant -> substitutions from input

	for level := 0; level <= distance; level++ {
		nextCheck := make([]string, 0, len(toCheck)*len(input)*(len(substitutions)-1))

		for _, curBC := range toCheck {
			if _, done := seen[curBC]; done {
				continue
			}
			seen[curBC] = level
			if level == distance {
				continue
			}
			for i := 0; i < len(curBC); i++ {
				c := curBC[i]
				if !isSubstitutable(c) {
					continue
				}
				for _, replacement := range substitutions {
					if replacement == c {
						continue
					}
					newBC := curBC[:i] + string(replacement) + curBC[i+1:]
					if _, alreadySeen := seen[newBC]; !alreadySeen {
						nextCheck = append(nextCheck, newBC)
					}
				}
			}
		}
		toCheck = nextCheck
	}
	return seen
}

func isSubstitutable(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N':
		return true
	}
	return false
}

func allSubstitutable(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSubstitutable(s[i]) {
			return false
		}
	}
	return true
}

type expansion struct {
	canonical string
	dist      int
}

// expand maps every variant within tolerance of any entry onto the nearest
// entry. Entries must be sorted so that equal-distance collisions keep the
// lexicographically smallest canonical entry.
func expand(entries []string, tolerance int) map[string]expansion {
	hint := maxExpandVariants
	if per := estimateVariants(width(entries), tolerance); per <= maxExpandVariants/len(entries) {
		hint = len(entries) * per
	}
	out := make(map[string]expansion, hint)
	for _, bc := range entries {
		for variant, dist := range mismatches(bc, tolerance) {
			cur, conflict := out[variant]
			if conflict && !better(dist, bc, cur.dist, cur.canonical) {
				continue
			}
			out[variant] = expansion{canonical: bc, dist: dist}
		}
	}
	return out
}

// estimateVariants is the number of sequences within tolerance substitutions
// of a single entry of the given width: sum over k of C(width, k) * 4^k.
// Counts past maxExpandVariants saturate at maxExpandVariants+1.
func estimateVariants(width, tolerance int) int {
	total := 0
	choose := 1
	pow := 1
	for k := 0; k <= tolerance && k <= width; k++ {
		total += choose * pow
		if total > maxExpandVariants {
			return maxExpandVariants + 1
		}
		choose = choose * (width - k) / (k + 1)
		pow *= len(substitutions) - 1
	}
	return total
}

func width(entries []string) int {
	if len(entries) == 0 {
		return 0
	}
	return len(entries[0])
}
