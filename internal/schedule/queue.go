package schedule

import "container/heap"

// readyQueue is a priority queue over tasks whose dependencies are all
// satisfied. Ordering is priority descending, then arrival sequence
// ascending, which reproduces a stable re-sort of the whole queue on
// every release at O(log n) per operation.
type readyQueue struct {
	items []readyItem
}

type readyItem struct {
	task Task
	seq  int
}

func (q *readyQueue) Len() int { return len(q.items) }

func (q *readyQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.task.Priority != b.task.Priority {
		return a.task.Priority > b.task.Priority
	}
	return a.seq < b.seq
}

func (q *readyQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *readyQueue) Push(x any) {
	q.items = append(q.items, x.(readyItem))
}

func (q *readyQueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	q.items = old[:n-1]
	return it
}

func (q *readyQueue) push(t Task, seq int) {
	heap.Push(q, readyItem{task: t, seq: seq})
}

func (q *readyQueue) pop() Task {
	return heap.Pop(q).(readyItem).task
}
