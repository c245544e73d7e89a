package containers

import "testing"

func TestRingQueuePushDropsOldest(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 5; i++ {
		rq.Push(i)
	}
	if rq.Len() != 3 {
		t.Fatalf("expected len 3; got %d", rq.Len())
	}

	var got []int
	rq.Each(func(v int) { got = append(got, v) })
	for i, exp := range []int{3, 4, 5} {
		if got[i] != exp {
			t.Fatalf("expected element %d to be %d; got %d", i, exp, got[i])
		}
	}
}

func TestRingQueueEnqueueDequeue(t *testing.T) {
	rq := NewRingQueue[string](2)
	if _, err := rq.Dequeue(); err != ErrQueueEmpty {
		t.Fatalf("expected ErrQueueEmpty; got %v", err)
	}
	_ = rq.Enqueue("a")
	_ = rq.Enqueue("b")
	if err := rq.Enqueue("c"); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull; got %v", err)
	}
	if v, _ := rq.Peek(); v != "a" {
		t.Fatalf("expected peek to return a; got %q", v)
	}
	if v, _ := rq.Dequeue(); v != "a" {
		t.Fatalf("expected a; got %q", v)
	}
	if v, _ := rq.Dequeue(); v != "b" {
		t.Fatalf("expected b; got %q", v)
	}
	if !rq.IsEmpty() {
		t.Fatalf("expected queue to be empty")
	}
}
