package market

import "github.com/lnsongxf/gametheory/pkg/errors"

func validate(capacity []int, priority [][]int, preference [][]int) error {
	nschool, nstud := len(capacity), len(preference)

	switch {
	case nschool == 0:
		return errors.Invalid(errors.SubjectMarket, -1, "no schools")
	case nstud == 0:
		return errors.Invalid(errors.SubjectMarket, -1, "no students")
	case len(priority) != nschool:
		return errors.Invalid(errors.SubjectMarket, -1,
			"%d priority lists for %d schools", len(priority), nschool)
	}

	for k, c := range capacity {
		if c < 0 {
			return errors.Invalid(errors.SubjectSchool, k, "negative capacity %d", c)
		}
	}

	seen := make([]int, max(nschool, nstud))
	for k, p := range priority {
		if len(p) == 0 {
			return errors.Invalid(errors.SubjectSchool, k, "empty priority list")
		}
		// seen holds k+1 for every student already listed by school k,
		// which avoids clearing the slice between schools.
		for _, i := range p {
			if i < 0 || i >= nstud {
				return errors.Invalid(errors.SubjectSchool, k, "unknown student %d", i)
			}
			if seen[i] == k+1 {
				return errors.Invalid(errors.SubjectSchool, k, "student %d listed twice", i)
			}
			seen[i] = k + 1
		}
	}

	clear(seen)
	for i, p := range preference {
		if len(p) == 0 {
			return errors.Invalid(errors.SubjectStudent, i, "empty preference list")
		}
		for _, k := range p {
			if k < 0 || k >= nschool {
				return errors.Invalid(errors.SubjectStudent, i, "unknown school %d", k)
			}
			if seen[k] == i+1 {
				return errors.Invalid(errors.SubjectStudent, i, "school %d listed twice", k)
			}
			seen[k] = i + 1
		}
		if len(p) != nschool {
			return errors.Invalid(errors.SubjectStudent, i,
				"preference list ranks %d of %d schools", len(p), nschool)
		}
	}
	return nil
}
