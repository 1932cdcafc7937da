package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

// Default file names used by [ExportMarket] and [ExportMatching].
const (
	SchoolFile       = "school.txt"
	StudentFile      = "student.txt"
	MatchSchoolFile  = "match_school.txt"
	MatchStudentFile = "match_student.txt"
)

// ReadSchools reads a school file and returns capacities and priority lists.
func ReadSchools(r io.Reader) (capacity []int, priority [][]int, err error) {
	err = readLines(r, "school file", func(_ int, nums []int) error {
		capacity = append(capacity, nums[0])
		priority = append(priority, nums[1:])
		return nil
	})
	return capacity, priority, err
}

// ReadStudents reads a student file and returns preference lists.
func ReadStudents(r io.Reader) (preference [][]int, err error) {
	err = readLines(r, "student file", func(_ int, nums []int) error {
		preference = append(preference, nums)
		return nil
	})
	return preference, err
}

// ReadMarket reads a school file and a student file and builds a market.
func ReadMarket(schools, students io.Reader, opts ...market.Option) (*market.Market, error) {
	capacity, priority, err := ReadSchools(schools)
	if err != nil {
		return nil, err
	}
	preference, err := ReadStudents(students)
	if err != nil {
		return nil, err
	}
	stripLegacyOutside(len(capacity), preference)
	return market.New(capacity, priority, preference, opts...)
}

// stripLegacyOutside drops a trailing outside option index from preference
// lists that rank one school more than the market has.
func stripLegacyOutside(nschool int, preference [][]int) {
	for i, p := range preference {
		if len(p) == nschool+1 && p[nschool] == nschool {
			preference[i] = p[:nschool]
		}
	}
}

// WriteMarket writes the market's input lists. The outside option is left
// out; it is re-derived when the files are read back.
func WriteMarket(m *market.Market, schools, students io.Writer) error {
	capacity, priority, preference := m.Input()

	rows := make([][]int, len(capacity))
	for k := range capacity {
		rows[k] = append([]int{capacity[k]}, priority[k]...)
	}
	if err := writeLines(schools, rows); err != nil {
		return fmt.Errorf("school file: %w", err)
	}
	if err := writeLines(students, preference); err != nil {
		return fmt.Errorf("student file: %w", err)
	}
	return nil
}

// WriteMatching writes the school view and the student view of mt.
func WriteMatching(mt *market.Matching, schools, students io.Writer) error {
	if err := writeLines(schools, mt.Schools()); err != nil {
		return fmt.Errorf("school file: %w", err)
	}
	assignment := mt.Assignment()
	rows := make([][]int, len(assignment))
	for i, k := range assignment {
		rows[i] = []int{k}
	}
	if err := writeLines(students, rows); err != nil {
		return fmt.Errorf("student file: %w", err)
	}
	return nil
}

// ReadMatching reads a matching of m from its student file.
func ReadMatching(m *market.Market, students io.Reader) (*market.Matching, error) {
	var assignment []int
	err := readLines(students, "student file", func(line int, nums []int) error {
		if len(nums) != 1 {
			return fmt.Errorf("line %d: want one school, got %d", line, len(nums))
		}
		assignment = append(assignment, nums[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return market.FromAssignment(m, assignment)
}

// ImportMarket reads SchoolFile and StudentFile from dir.
func ImportMarket(dir string, opts ...market.Option) (*market.Market, error) {
	return ImportMarketFiles(filepath.Join(dir, SchoolFile), filepath.Join(dir, StudentFile), opts...)
}

// ImportMarketFiles reads a market from the given school and student files.
func ImportMarketFiles(schoolPath, studentPath string, opts ...market.Option) (*market.Market, error) {
	sf, err := os.Open(schoolPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", schoolPath, err)
	}
	defer sf.Close()
	pf, err := os.Open(studentPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", studentPath, err)
	}
	defer pf.Close()
	return ReadMarket(sf, pf, opts...)
}

// ExportMarket writes SchoolFile and StudentFile into dir, creating it if
// needed.
func ExportMarket(m *market.Market, dir string) error {
	return exportPair(dir, SchoolFile, StudentFile, func(s, p io.Writer) error {
		return WriteMarket(m, s, p)
	})
}

// ExportMatching writes MatchSchoolFile and MatchStudentFile into dir,
// prefixed with name when it is not empty (e.g. "da_match_school.txt").
func ExportMatching(mt *market.Matching, dir, name string) error {
	school, student := MatchSchoolFile, MatchStudentFile
	if name != "" {
		school, student = name+"_"+school, name+"_"+student
	}
	return exportPair(dir, school, student, func(s, p io.Writer) error {
		return WriteMatching(mt, s, p)
	})
}

func exportPair(dir, first, second string, write func(a, b io.Writer) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	a, err := os.Create(filepath.Join(dir, first))
	if err != nil {
		return fmt.Errorf("create %s: %w", first, err)
	}
	defer a.Close()
	b, err := os.Create(filepath.Join(dir, second))
	if err != nil {
		return fmt.Errorf("create %s: %w", second, err)
	}
	defer b.Close()

	if err := write(a, b); err != nil {
		return err
	}
	if err := a.Close(); err != nil {
		return err
	}
	return b.Close()
}

// readLines parses comma-separated integer lines, skipping blank ones and
// lines holding only separators.
// Parse failures are INVALID_FORMAT errors naming the file and line.
func readLines(r io.Reader, what string, fn func(line int, nums []int) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s", what)
		}
		line, _ := cr.FieldPos(0)

		nums := make([]int, 0, len(record))
		for _, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.Atoi(field)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s line %d", what, line)
			}
			nums = append(nums, n)
		}
		if len(nums) == 0 {
			continue
		}
		if err := fn(line, nums); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s", what)
		}
	}
}

func writeLines(w io.Writer, rows [][]int) error {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(join(row))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func join(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
