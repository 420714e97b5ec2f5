package whitelist

// Hamming returns the number of positions at which a and b differ.
// Positions past the end of the shorter string count as mismatches, so
// strings of different lengths are never closer than their length gap.
func Hamming(a, b string) int {
	n := len(a)
	dist := 0
	if len(b) < n {
		n = len(b)
		dist = len(a) - len(b)
	} else {
		dist = len(b) - len(a)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist
}

// hammingWithin compares two equal-length strings and gives up as soon as
// the distance exceeds limit. The returned distance is only exact when ok.
func hammingWithin(a, b string, limit int) (dist int, ok bool) {
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			dist++
			if dist > limit {
				return dist, false
			}
		}
	}
	return dist, true
}

// better reports whether (dist, entry) should replace the current best
// match (bestDist, best): nearer wins, then the lexicographically smaller.
func better(dist int, entry string, bestDist int, best string) bool {
	if bestDist < 0 || dist < bestDist {
		return true
	}
	return dist == bestDist && entry < best
}
