package domain

// The two circular lines in the reference network: the Yamanote line and the
// Osaka loop line. A loop line's catalog order is an arbitrary cut of a
// circle, so window formation has to wrap at both ends.
var defaultLoopLineIDs = []int{11302, 11623}

// DefaultLoopLineIDs returns the built-in loop-line allow-list.
func DefaultLoopLineIDs() []int {
	ids := make([]int, len(defaultLoopLineIDs))
	copy(ids, defaultLoopLineIDs)
	return ids
}

// LineTopology classifies line IDs as circular (loop) or linear.
type LineTopology struct {
	loop map[int]struct{}
}

// NewLineTopology builds a topology from the given loop-line IDs. Pass
// DefaultLoopLineIDs() unless the catalog supplies its own list.
func NewLineTopology(loopLineIDs []int) *LineTopology {
	loop := make(map[int]struct{}, len(loopLineIDs))
	for _, id := range loopLineIDs {
		loop[id] = struct{}{}
	}
	return &LineTopology{loop: loop}
}

// IsLoopLine reports whether the line's station sequence is circular.
func (t *LineTopology) IsLoopLine(lineID int) bool {
	_, ok := t.loop[lineID]
	return ok
}
