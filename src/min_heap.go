package mla

/*-------------------------------------------------------------
 *
 * Purpose:	Priority queue of detour records for the serial list
 *		Viterbi search.  The queue is keyed by projected path
 *		metric and is the sole source of candidate paths, so
 *		pops come out in non-decreasing metric order.
 *
 *--------------------------------------------------------------*/

import "container/heap"

// A detour describes one candidate path: either the best path ending
// at startingState (originalPathIndex < 0), or a branch off a
// previously enumerated path that substitutes the suboptimal
// predecessor at detourStage.
type detour_object struct {
	startingState     int
	pathMetric        float64 /* projected metric of the full path */
	detourStage       int
	originalPathIndex int
	forwardPathMetric float64 /* metric of the portion after the detour point */
}

type detour_slice []detour_object

func (s detour_slice) Len() int            { return len(s) }
func (s detour_slice) Less(i, j int) bool  { return s[i].pathMetric < s[j].pathMetric }
func (s detour_slice) Swap(i, j int)       { s[i], s[j] = s[j], s[i] }
func (s *detour_slice) Push(x interface{}) { *s = append(*s, x.(detour_object)) }

func (s *detour_slice) Pop() interface{} {
	var old = *s
	var n = len(old)
	var d = old[n-1]
	*s = old[:n-1]
	return d
}

type min_heap struct {
	slice detour_slice
}

func (m *min_heap) insert(d detour_object) {
	heap.Push(&m.slice, d)
}

func (m *min_heap) pop() detour_object {
	return heap.Pop(&m.slice).(detour_object)
}

func (m *min_heap) empty() bool {
	return len(m.slice) == 0
}
