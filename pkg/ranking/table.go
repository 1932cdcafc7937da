package ranking

// Table is a family of lists over one id universe, e.g. every school's
// priority list over students. It records which lists mention each id so
// that [Table.RemoveEverywhere] touches only those lists.
type Table struct {
	lists   []*List
	holders [][]int // id -> indices of lists that rank it
}

// NewTable builds one list per order.
func NewTable(orders [][]int, universe int) *Table {
	t := &Table{
		lists:   make([]*List, len(orders)),
		holders: make([][]int, universe),
	}
	for i, order := range orders {
		t.lists[i] = New(order, universe)
		for _, id := range order {
			t.holders[id] = append(t.holders[id], i)
		}
	}
	return t
}

// Len returns the number of lists.
func (t *Table) Len() int { return len(t.lists) }

// List returns list i.
func (t *Table) List(i int) *List { return t.lists[i] }

// RemoveEverywhere retires id from every list that still holds it and
// returns how many lists changed.
func (t *Table) RemoveEverywhere(id int) int {
	if id < 0 || id >= len(t.holders) {
		return 0
	}
	removed := 0
	for _, i := range t.holders[id] {
		if t.lists[i].Remove(id) {
			removed++
		}
	}
	return removed
}
