// Package matchmaking holds connections waiting to be paired into a
// session.
package matchmaking

// Queue is a FIFO of waiting handles with no duplicates. It is not
// self-locking: callers serialize access behind the orchestrator's
// critical section.
type Queue[T comparable] struct {
	items []T
}

func New[T comparable]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends the handle unless it is already waiting.
func (that *Queue[T]) Enqueue(item T) {
	if that.Contains(item) {
		return
	}

	that.items = append(that.items, item)
}

// DequeuePair pops the two oldest handles in arrival order; ok is false
// when fewer than two are waiting. The first handle queued earlier.
func (that *Queue[T]) DequeuePair() (first, second T, ok bool) {
	if len(that.items) < 2 {
		return first, second, false
	}

	first, second = that.items[0], that.items[1]
	that.items = that.items[2:]

	return first, second, true
}

// Remove deletes the handle if present, idempotent when absent.
func (that *Queue[T]) Remove(item T) {
	for i, existing := range that.items {
		if existing == item {
			that.items = append(that.items[:i], that.items[i+1:]...)
			return
		}
	}
}

func (that *Queue[T]) Contains(item T) bool {
	for _, existing := range that.items {
		if existing == item {
			return true
		}
	}

	return false
}

func (that *Queue[T]) Len() int {
	return len(that.items)
}
