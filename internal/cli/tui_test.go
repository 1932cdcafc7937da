package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lnsongxf/gametheory/pkg/market"
	"github.com/lnsongxf/gametheory/pkg/mechanism"
	"github.com/lnsongxf/gametheory/pkg/store"
)

func swapProblem(t *testing.T) *store.Problem {
	t.Helper()
	m, err := market.New([]int{1, 1}, [][]int{{0, 1}, {1, 0}}, [][]int{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	matchings := make(map[string]*market.Matching)
	for _, mech := range mechanism.All() {
		mt, err := mech.Run(m)
		if err != nil {
			t.Fatal(err)
		}
		matchings[mech.Name()] = mt
	}
	return store.NewProblemWithID("swap", m, matchings)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m BrowseModel, keys ...string) (BrowseModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(BrowseModel)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestBrowseModelNavigation(t *testing.T) {
	p := swapProblem(t)
	summaries := []store.Summary{
		{ID: "first", CreatedAt: time.Now()},
		p.Summary(),
	}
	var loaded string
	m := NewBrowseModel(summaries, func(id string) (*store.Problem, error) {
		loaded = id
		return p, nil
	})

	m, _ = press(t, m, "up", "down", "down", "down")
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d, want it clamped at 1", m.Cursor)
	}

	m, _ = press(t, m, "enter")
	if loaded != "swap" || m.Problem == nil {
		t.Fatalf("enter should open the selected problem, loaded %q", loaded)
	}
	if strings.Join(m.Names, ",") != "da,boston,ttc" {
		t.Errorf("tabs = %v, want registry order", m.Names)
	}
	if !strings.Contains(m.View(), "Deferred Acceptance") {
		t.Error("first tab should show Deferred Acceptance")
	}

	m, _ = press(t, m, "left")
	if m.Names[m.Tab] != "ttc" {
		t.Errorf("left from the first tab should wrap to ttc, got %s", m.Names[m.Tab])
	}
	m, _ = press(t, m, "right", "right")
	if m.Names[m.Tab] != "boston" {
		t.Errorf("tab = %s, want boston", m.Names[m.Tab])
	}

	m, _ = press(t, m, "s")
	if !m.ByStudent || !strings.Contains(m.View(), "Choice") {
		t.Error("s should switch to the student table")
	}

	m, cmd := press(t, m, "esc")
	if m.Problem != nil || isQuit(cmd) {
		t.Error("esc should return to the list")
	}
	if _, cmd = press(t, m, "q"); !isQuit(cmd) {
		t.Error("q should quit")
	}
}

func TestBrowseModelLoadError(t *testing.T) {
	m := NewBrowseModel([]store.Summary{{ID: "gone"}}, func(id string) (*store.Problem, error) {
		return nil, store.ValidateID("bad id!")
	})
	m, _ = press(t, m, "enter")
	if m.Problem != nil || m.Err == nil {
		t.Fatal("a failed load should stay in the list and keep the error")
	}
	if !strings.Contains(m.View(), "bad id!") {
		t.Error("the list view should show the load error")
	}
}

func TestProblemModelEscQuits(t *testing.T) {
	m := NewProblemModel(swapProblem(t))
	if _, cmd := press(t, m, "esc"); !isQuit(cmd) {
		t.Error("esc on a single problem should quit")
	}
}

func TestBrowseModelResize(t *testing.T) {
	m := NewBrowseModel(nil, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if got := next.(BrowseModel).Height; got != 5 {
		t.Errorf("height = %d, want the minimum of 5", got)
	}
}
