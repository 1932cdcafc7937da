package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnsongxf/gametheory/pkg/errors"
	"github.com/lnsongxf/gametheory/pkg/market"
)

const (
	schoolText  = "1, 0, 1\n1,1,0\n"
	studentText = "1, 0\n\n 0 , 1\n"
)

func TestReadMarket(t *testing.T) {
	m, err := ReadMarket(strings.NewReader(schoolText), strings.NewReader(studentText))
	require.NoError(t, err)

	capacity, priority, preference := m.Input()
	assert.Equal(t, []int{1, 1}, capacity)
	assert.Equal(t, [][]int{{0, 1}, {1, 0}}, priority)
	assert.Equal(t, [][]int{{1, 0}, {0, 1}}, preference)
	assert.False(t, m.HasOutsideOption())
}

func TestReadMarketStripsLegacyOutsideOption(t *testing.T) {
	// one seat for two students: old generators appended school 1 to
	// every preference list
	m, err := ReadMarket(strings.NewReader("1, 0, 1\n"), strings.NewReader("0, 1\n0, 1\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, m.RealSchools())
	assert.True(t, m.HasOutsideOption())
	assert.Equal(t, []int{0, 1}, m.Preference(0))
}

func TestReadMarketErrors(t *testing.T) {
	tests := []struct {
		name     string
		schools  string
		students string
		code     errors.Code
	}{
		{"not a number", "1, x\n", "0\n", errors.ErrCodeInvalidFormat},
		{"bad quote", "1, \"0\n", "0\n", errors.ErrCodeInvalidFormat},
		{"empty priority", "1\n", "0\n", errors.ErrCodeInvalidMarket},
		{"unknown school", "1, 0\n", "3\n", errors.ErrCodeInvalidMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMarket(strings.NewReader(tt.schools), strings.NewReader(tt.students))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestReadFormatErrorNamesLine(t *testing.T) {
	_, err := ReadStudents(strings.NewReader("0, 1\n1, 0\n1, zero\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student file line 3")
}

func TestWriteMarketRoundTrip(t *testing.T) {
	m, err := market.New([]int{1}, [][]int{{1, 0}}, [][]int{{0}, {0}}, market.WithOutsideOption())
	require.NoError(t, err)

	var schools, students bytes.Buffer
	require.NoError(t, WriteMarket(m, &schools, &students))
	assert.Equal(t, "1, 1, 0\n", schools.String())
	assert.Equal(t, "0\n0\n", students.String())

	back, err := ReadMarket(&schools, &students)
	require.NoError(t, err)
	assert.True(t, back.HasOutsideOption())
	assert.Equal(t, m.NumSchools(), back.NumSchools())
}

func TestMatchingText(t *testing.T) {
	m, err := market.New([]int{2, 1}, [][]int{{0, 1, 2}, {2}}, [][]int{{0, 1}, {0, 1}, {1, 0}})
	require.NoError(t, err)
	mt, err := market.FromAssignment(m, []int{0, market.Unassigned, 1})
	require.NoError(t, err)

	var schools, students bytes.Buffer
	require.NoError(t, WriteMatching(mt, &schools, &students))
	assert.Equal(t, "0\n2\n", schools.String())
	assert.Equal(t, "0\n-1\n1\n", students.String())

	back, err := ReadMatching(m, &students)
	require.NoError(t, err)
	assert.True(t, mt.Equal(back))
}

func TestReadMatchingRejectsOverCapacity(t *testing.T) {
	m, err := market.New([]int{1, 1}, [][]int{{0, 1}, {0, 1}}, [][]int{{0, 1}, {0, 1}})
	require.NoError(t, err)

	_, err = ReadMatching(m, strings.NewReader("0\n0\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = ReadMatching(m, strings.NewReader("0, 1\n1\n"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestExportImportFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := ReadMarket(strings.NewReader(schoolText), strings.NewReader(studentText))
	require.NoError(t, err)

	require.NoError(t, ExportMarket(m, dir))
	back, err := ImportMarket(dir)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))

	mt, err := market.FromAssignment(m, []int{1, 0})
	require.NoError(t, err)
	require.NoError(t, ExportMatching(mt, dir, "ttc"))
	assert.FileExists(t, filepath.Join(dir, "ttc_match_school.txt"))
	assert.FileExists(t, filepath.Join(dir, "ttc_match_student.txt"))

	_, err = ImportMarket(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestProblemJSONRoundTrip(t *testing.T) {
	m, err := market.New([]int{1}, [][]int{{0, 1}}, [][]int{{0}, {0}})
	require.NoError(t, err)
	mt, err := market.FromAssignment(m, []int{0, 1})
	require.NoError(t, err)
	p := &Problem{Market: m, Matchings: map[string]*market.Matching{"da": mt, "ttc": mt}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(p, &buf))
	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(back))
	assert.Equal(t, []string{"da", "ttc"}, back.Mechanisms())

	path := filepath.Join(t.TempDir(), "problem.json")
	require.NoError(t, ExportJSON(p, path))
	fromFile, err := ImportJSON(path)
	require.NoError(t, err)
	assert.True(t, p.Equal(fromFile))
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"malformed", `{"market":`, errors.ErrCodeInvalidFormat},
		{"missing market", `{}`, errors.ErrCodeInvalidFormat},
		{"invalid market", `{"market":{"capacity":[-1],"priority":[[0]],"preference":[[0]]}}`, errors.ErrCodeInvalidMarket},
		{"over capacity", `{"market":{"capacity":[1,1],"priority":[[0,1],[0,1]],"preference":[[0,1],[0,1]]},
			"matchings":{"da":{"schools":[[0,1],[]],"students":[0,0]}}}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}
