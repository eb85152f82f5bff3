package ringbuffer

import "testing"

func TestPushWithinCapacity(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	if b.Front() != 1 {
		t.Errorf("Front() = %d, want 1", b.Front())
	}
	if b.Back() != 3 {
		t.Errorf("Back() = %d, want 3", b.Back())
	}
}

func TestPushEvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	got := b.Slice()
	want := []int{3, 4, 5}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Slice()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestSliceIsDefensiveCopy(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)

	s := b.Slice()
	s[0] = 99

	if b.At(0) != 1 {
		t.Errorf("mutating Slice() result leaked into buffer: At(0) = %d, want 1", b.At(0))
	}
}

func TestClone(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)

	clone := b.Clone()
	clone.Push(3)

	if b.Len() != 2 {
		t.Errorf("pushing to clone mutated original: Len() = %d, want 2", b.Len())
	}
	if clone.Len() != 3 {
		t.Errorf("clone.Len() = %d, want 3", clone.Len())
	}
}
