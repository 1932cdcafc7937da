package market

// Pair is a (student, school) pair.
type Pair struct {
	Student int `json:"student"`
	School  int `json:"school"`
}

// BlockingPairs returns every pair that blocks mt in m: the student is
// eligible at the school and strictly prefers it to its assignment, and the
// school either has a free seat or ranks the student above one of its
// assignees. A matching is stable exactly when the result is empty.
func BlockingPairs(m *Market, mt *Matching) []Pair {
	var out []Pair
	for i := 0; i < m.NumStudents(); i++ {
		current := mt.SchoolOf(i)
		for _, k := range m.preference[i] {
			if k == current {
				break
			}
			if !m.Eligible(k, i) {
				continue
			}
			if blocks(m, mt, i, k) {
				out = append(out, Pair{Student: i, School: k})
			}
		}
	}
	return out
}

// IsStable reports whether mt has no blocking pair in m.
func IsStable(m *Market, mt *Matching) bool {
	return len(BlockingPairs(m, mt)) == 0
}

func blocks(m *Market, mt *Matching, student, school int) bool {
	held := mt.schools[school]
	if len(held) < m.Capacity(school) {
		return true
	}
	r := m.PriorityRank(school, student)
	for _, j := range held {
		if rj := m.PriorityRank(school, j); rj < 0 || r < rj {
			return true
		}
	}
	return false
}
