// Package market describes two-sided many-to-one matching markets in the
// school choice style and the matchings computed over them.
//
// # Overview
//
// A [Market] holds a finite set of students, each with a strict preference
// order over every school, and a finite set of schools, each with a
// non-negative capacity and a strict priority order over the students that
// are eligible there. A student missing from a school's priority list is
// ineligible at that school.
//
// Markets are built once with [New], which validates the input and copies
// it. A Market is never mutated afterwards and is safe to share between
// goroutines; mechanisms in package mechanism read it and keep their own
// working copies.
//
// # Outside Option
//
// When the total real capacity is smaller than the number of students, [New]
// appends a synthetic school, the outside option. It has capacity for every
// student, ranks all students by index, and is every student's last
// preference, so every mechanism can seat every student somewhere. Pass
// [WithOutsideOption] to add it even when capacity suffices, which also
// covers students that eligibility would otherwise leave unseated.
//
// # Matchings
//
// A [Matching] maps each school to an ascending set of students and each
// student to at most one school. [FromAssignment] checks capacities and
// ranges, and [BlockingPairs] verifies stability.
package market
