package queue

import (
	"errors"
	"testing"
	"time"
)

func TestPushThenPopReturnsValue(t *testing.T) {
	t.Parallel()

	q := New[int](4)
	if err := q.Push(42); err != nil {
		t.Fatalf("Push: %v", err)
	}
	v, err := q.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v != 42 {
		t.Errorf("Pop() = %d, want 42", v)
	}
}

func TestPushAfterDeactivateFails(t *testing.T) {
	t.Parallel()

	q := New[int](4)
	q.Deactivate()

	if err := q.Push(1); !errors.Is(err, ErrInactive) {
		t.Errorf("Push after Deactivate: err = %v, want ErrInactive", err)
	}
	if _, err := q.Pop(); !errors.Is(err, ErrInactive) {
		t.Errorf("Pop on empty deactivated queue: err = %v, want ErrInactive", err)
	}
}

func TestPopDrainsBufferedItemsBeforeGoingInactive(t *testing.T) {
	t.Parallel()

	q := New[int](4)
	if err := q.Push(1); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Push(2); err != nil {
		t.Fatalf("Push: %v", err)
	}
	q.Deactivate()

	for _, want := range []int{1, 2} {
		v, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if v != want {
			t.Errorf("Pop() = %d, want %d", v, want)
		}
	}
	if _, err := q.Pop(); !errors.Is(err, ErrInactive) {
		t.Errorf("Pop on drained deactivated queue: err = %v, want ErrInactive", err)
	}
}

func TestDeactivateAndClearDropsBufferedItems(t *testing.T) {
	t.Parallel()

	q := New[int](4)
	_ = q.Push(1)
	_ = q.Push(2)
	q.DeactivateAndClear()

	if _, err := q.Pop(); !errors.Is(err, ErrInactive) {
		t.Errorf("Pop after DeactivateAndClear: err = %v, want ErrInactive", err)
	}
}

func TestPushBlocksUntilRoomThenUnblocks(t *testing.T) {
	t.Parallel()

	q := New[int](1)
	if err := q.Push(1); err != nil {
		t.Fatalf("Push: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- q.Push(2)
	}()

	select {
	case <-done:
		t.Fatal("Push should have blocked while queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := q.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("blocked Push returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Push never completed after room freed up")
	}
}

func TestCanPop(t *testing.T) {
	t.Parallel()

	q := New[int](2)
	if !q.CanPop() {
		t.Error("CanPop() should be true while active, even if empty")
	}
	q.Deactivate()
	if q.CanPop() {
		t.Error("CanPop() should be false once inactive and empty")
	}
}
