package market

import (
	"encoding/json"
	"slices"

	"github.com/lnsongxf/gametheory/pkg/errors"
)

// Matching assigns each student to at most one school.
// It is immutable once built.
type Matching struct {
	schools  [][]int // school -> ascending students
	students []int   // student -> school or Unassigned
}

// FromAssignment builds a Matching for m from a per-student school index
// ([Unassigned] allowed). It fails when an index is out of range or a school
// receives more students than its capacity.
func FromAssignment(m *Market, assignment []int) (*Matching, error) {
	if len(assignment) != m.NumStudents() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"assignment covers %d of %d students", len(assignment), m.NumStudents())
	}
	mt := &Matching{
		schools:  make([][]int, m.NumSchools()),
		students: slices.Clone(assignment),
	}
	for i, k := range assignment {
		if k == Unassigned {
			continue
		}
		if k < 0 || k >= m.NumSchools() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "student %d assigned to unknown school %d", i, k)
		}
		mt.schools[k] = append(mt.schools[k], i)
	}
	for k, s := range mt.schools {
		if len(s) > m.Capacity(k) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"school %d holds %d students, capacity %d", k, len(s), m.Capacity(k))
		}
		if s == nil {
			mt.schools[k] = []int{}
		}
	}
	return mt, nil
}

// NumStudents returns the number of students covered.
func (mt *Matching) NumStudents() int { return len(mt.students) }

// NumSchools returns the number of schools covered.
func (mt *Matching) NumSchools() int { return len(mt.schools) }

// SchoolOf returns student's school, or [Unassigned].
func (mt *Matching) SchoolOf(student int) int { return mt.students[student] }

// StudentsAt returns the students assigned to school in ascending order.
func (mt *Matching) StudentsAt(school int) []int { return slices.Clone(mt.schools[school]) }

// Assignment returns a copy of the student -> school view.
func (mt *Matching) Assignment() []int { return slices.Clone(mt.students) }

// Schools returns a copy of the school -> students view.
func (mt *Matching) Schools() [][]int {
	out := make([][]int, len(mt.schools))
	for k, s := range mt.schools {
		out[k] = slices.Clone(s)
	}
	return out
}

// Unassigned returns the students without a seat.
func (mt *Matching) Unassigned() []int {
	var out []int
	for i, k := range mt.students {
		if k == Unassigned {
			out = append(out, i)
		}
	}
	return out
}

// Equal reports whether both matchings assign every student identically.
func (mt *Matching) Equal(other *Matching) bool {
	if mt == nil || other == nil {
		return mt == other
	}
	return len(mt.schools) == len(other.schools) && slices.Equal(mt.students, other.students)
}

type matchingJSON struct {
	Schools  [][]int `json:"schools"`
	Students []int   `json:"students"`
}

// MarshalJSON encodes both views of the matching.
func (mt *Matching) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchingJSON{Schools: mt.schools, Students: mt.students})
}

// UnmarshalJSON decodes a matching and checks that both views agree.
// Capacities are checked by [Attach] once the market is known.
func (mt *Matching) UnmarshalJSON(data []byte) error {
	var raw matchingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	schools := make([][]int, len(raw.Schools))
	seen := 0
	for k, s := range raw.Schools {
		for _, i := range s {
			if i < 0 || i >= len(raw.Students) || raw.Students[i] != k {
				return errors.New(errors.ErrCodeInvalidFormat, "school %d lists student %d inconsistently", k, i)
			}
		}
		schools[k] = append([]int{}, s...)
		slices.Sort(schools[k])
		seen += len(s)
	}
	for i, k := range raw.Students {
		if k != Unassigned && (k < 0 || k >= len(raw.Schools)) {
			return errors.New(errors.ErrCodeInvalidFormat, "student %d assigned to unknown school %d", i, k)
		}
		if k != Unassigned {
			seen--
		}
	}
	if seen != 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "school and student views disagree")
	}
	mt.schools, mt.students = schools, slices.Clone(raw.Students)
	return nil
}

// Attach re-validates a decoded matching against m.
func Attach(m *Market, mt *Matching) (*Matching, error) {
	if mt.NumSchools() != m.NumSchools() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"matching covers %d of %d schools", mt.NumSchools(), m.NumSchools())
	}
	return FromAssignment(m, mt.students)
}
