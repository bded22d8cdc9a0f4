package index

import (
	"container/heap"
	"slices"
)

var _ heap.Interface = (*priorityQueue)(nil)

// candidate is a storage slot and its distance to the current target.
type candidate struct {
	slot uint32
	dist float32
}

// closer orders by distance, then by slot so equal distances resolve to the
// earlier-ingested point.
func closer(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.slot < b.slot
}

// priorityQueue is a min-heap on distance, or a max-heap when farthest is set.
type priorityQueue struct {
	farthest bool
	items    []candidate
}

func (pq *priorityQueue) Len() int { return len(pq.items) }

func (pq *priorityQueue) Less(i, j int) bool {
	if pq.farthest {
		return closer(pq.items[j], pq.items[i])
	}
	return closer(pq.items[i], pq.items[j])
}

func (pq *priorityQueue) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *priorityQueue) Push(x any) { pq.items = append(pq.items, x.(candidate)) }

func (pq *priorityQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}

func (pq *priorityQueue) push(c candidate) { heap.Push(pq, c) }

func (pq *priorityQueue) pop() candidate { return heap.Pop(pq).(candidate) }

func (pq *priorityQueue) top() candidate { return pq.items[0] }

func sortCandidates(cands []candidate) {
	slices.SortFunc(cands, func(a, b candidate) int {
		switch {
		case closer(a, b):
			return -1
		case closer(b, a):
			return 1
		}
		return 0
	})
}
