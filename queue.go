package dagcheck

// queue is a FIFO of node identifiers.
// Popping advances a head index instead of shifting the backing slice.
type queue struct {
	items []string
	head  int
}

func newQueue(capacity int) *queue {
	return &queue{items: make([]string, 0, capacity)}
}

func (q *queue) Len() int { return len(q.items) - q.head }

func (q *queue) Push(id string) {
	// Reclaim the consumed prefix once it outweighs the live part.
	if q.head > 0 && q.head >= len(q.items)/2 && len(q.items) == cap(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	q.items = append(q.items, id)
}

func (q *queue) Pop() (string, bool) {
	if q.Len() == 0 {
		return "", false
	}
	id := q.items[q.head]
	q.items[q.head] = ""
	q.head++
	return id, true
}
