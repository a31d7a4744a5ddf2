// Package position computes the sibling shifts that keep each parent's
// children numbered 0..n-1 with no gaps or duplicates. The planner is pure;
// the store applies a plan's shifts and the final placement inside one
// transaction, and reorder locks serialize movers on the same parent.
package position

// Shift adds Delta to every sibling whose position lies in [From, To]. An
// empty range (From > To) is a no-op.
type Shift struct {
	From  int
	To    int
	Delta int
}

func (s Shift) Empty() bool { return s.From > s.To }

// Append is the position assigned when no explicit target is given: one past
// the current highest, which for a contiguous sequence is the sibling count.
func Append(count int) int { return count }

// ClampInsert bounds a requested insert position to [0, count]; count means
// append. A nil request also means append.
func ClampInsert(requested *int, count int) int {
	if requested == nil {
		return Append(count)
	}
	p := *requested
	if p < 0 {
		return 0
	}
	if p > count {
		return count
	}
	return p
}

// ClampMove bounds a move target to [0, count-1] within a parent of count
// siblings (the moved item included).
func ClampMove(requested, count int) int {
	if count <= 0 {
		return 0
	}
	if requested < 0 {
		return 0
	}
	if requested > count-1 {
		return count - 1
	}
	return requested
}

// PlanInsert opens a gap at pos among count existing siblings.
func PlanInsert(pos, count int) Shift {
	return Shift{From: pos, To: count - 1, Delta: +1}
}

// PlanRemove closes the gap left at pos among count siblings (the removed
// one included in count).
func PlanRemove(pos, count int) Shift {
	return Shift{From: pos + 1, To: count - 1, Delta: -1}
}

// PlanSameParentMove returns the sibling shift for moving an item from
// oldPos to newPos under the same parent. Moving up the sequence decrements
// everything in (old, new]; moving down increments everything in [new, old).
// ok is false when the move is a no-op.
func PlanSameParentMove(oldPos, newPos int) (Shift, bool) {
	switch {
	case newPos == oldPos:
		return Shift{}, false
	case newPos > oldPos:
		return Shift{From: oldPos + 1, To: newPos, Delta: -1}, true
	default:
		return Shift{From: newPos, To: oldPos - 1, Delta: +1}, true
	}
}

// Apply mutates a position slice in place per the shift. Used by tests and
// in-memory stores; the SQL store expresses the same range update directly.
func Apply(positions []int, s Shift) {
	if s.Empty() {
		return
	}
	for i, p := range positions {
		if p >= s.From && p <= s.To {
			positions[i] = p + s.Delta
		}
	}
}

// Contiguous reports whether positions form exactly {0..n-1}.
func Contiguous(positions []int) bool {
	seen := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}
