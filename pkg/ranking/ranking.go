// Package ranking provides order-preserving ranked lists whose entries can be
// retired in constant time without shifting the remaining order.
//
// Matching mechanisms consume preference and priority lists destructively:
// a student holding a seat disappears from every priority list, a school
// with no seats left disappears from every preference list. A [List] keeps
// the original order in an array, a liveness marker per slot and a head
// cursor, so that [List.Top] is amortised O(1) and [List.Remove] is O(1)
// and idempotent. A [Table] groups many lists over the same id universe and
// indexes which lists mention which id, making "remove everywhere" a single
// well-defined operation.
//
// Lists are not safe for concurrent mutation. Each mechanism run builds its
// own working copies.
package ranking

// List is an ordered set of ids drawn from [0, universe).
// The zero value is an empty list.
type List struct {
	order []int
	pos   []int // id -> slot in order, -1 when the id was never listed
	live  []bool
	head  int
	n     int
}

// New builds a list from order, best first. Ids must be distinct and lie in
// [0, universe); callers validate their input before ranking it.
func New(order []int, universe int) *List {
	l := &List{
		order: append([]int(nil), order...),
		pos:   make([]int, universe),
		live:  make([]bool, len(order)),
		n:     len(order),
	}
	for i := range l.pos {
		l.pos[i] = -1
	}
	for i, id := range l.order {
		l.pos[id] = i
		l.live[i] = true
	}
	return l
}

// Len returns the number of live entries.
func (l *List) Len() int { return l.n }

// Empty reports whether no live entries remain.
func (l *List) Empty() bool { return l.n == 0 }

// Top returns the best live entry.
func (l *List) Top() (int, bool) {
	for l.head < len(l.order) && !l.live[l.head] {
		l.head++
	}
	if l.head == len(l.order) {
		return 0, false
	}
	return l.order[l.head], true
}

// Pop removes and returns the best live entry.
func (l *List) Pop() (int, bool) {
	id, ok := l.Top()
	if ok {
		l.Remove(id)
	}
	return id, ok
}

// Contains reports whether id is listed and still live.
func (l *List) Contains(id int) bool {
	if id < 0 || id >= len(l.pos) {
		return false
	}
	p := l.pos[id]
	return p >= 0 && l.live[p]
}

// Remove retires id if it is present. Removing an absent or already
// retired id is a no-op; the return value reports whether anything changed.
func (l *List) Remove(id int) bool {
	if !l.Contains(id) {
		return false
	}
	l.live[l.pos[id]] = false
	l.n--
	return true
}

// Rank returns the original position of id (0 = best), or -1 if id was
// never listed. Ranks are stable under removal.
func (l *List) Rank(id int) int {
	if id < 0 || id >= len(l.pos) {
		return -1
	}
	return l.pos[id]
}

// Prefers reports whether a ranks strictly above b. Unlisted ids rank below
// every listed id.
func (l *List) Prefers(a, b int) bool {
	ra, rb := l.Rank(a), l.Rank(b)
	switch {
	case ra < 0:
		return false
	case rb < 0:
		return true
	default:
		return ra < rb
	}
}

// Live returns the live entries in rank order.
func (l *List) Live() []int {
	out := make([]int, 0, l.n)
	for i := l.head; i < len(l.order); i++ {
		if l.live[i] {
			out = append(out, l.order[i])
		}
	}
	return out
}

// Clone returns an independent copy, including retired entries.
func (l *List) Clone() *List {
	return &List{
		order: append([]int(nil), l.order...),
		pos:   append([]int(nil), l.pos...),
		live:  append([]bool(nil), l.live...),
		head:  l.head,
		n:     l.n,
	}
}
