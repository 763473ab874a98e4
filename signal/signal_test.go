package signal

import "testing"

func TestSubscribeEmitOrder(t *testing.T) {
	var src Source[int]
	var order []string

	src.Subscribe(func(v int) { order = append(order, "a") })
	src.Subscribe(func(v int) { order = append(order, "b") })
	src.Emit(1)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("emit order = %v", order)
	}
}

func TestHandleRelease(t *testing.T) {
	var src Source[string]
	calls := 0

	h := src.Subscribe(func(string) { calls++ })
	keep := 0
	src.Subscribe(func(string) { keep++ })

	src.Emit("x")
	h.Release()
	h.Release() // double release is a no-op
	src.Emit("y")

	if calls != 1 {
		t.Fatalf("released subscriber called %d times, want 1", calls)
	}
	if keep != 2 {
		t.Fatalf("remaining subscriber called %d times, want 2", keep)
	}
	if src.Len() != 1 {
		t.Fatalf("Len = %d, want 1", src.Len())
	}
}

func TestReleaseDuringEmit(t *testing.T) {
	var src Source[int]
	var h Handle
	first := 0
	second := 0

	h = src.Subscribe(func(int) {
		first++
		h.Release()
	})
	src.Subscribe(func(int) { second++ })

	src.Emit(0)
	src.Emit(0)

	if first != 1 {
		t.Fatalf("self-releasing subscriber called %d times, want 1", first)
	}
	if second != 2 {
		t.Fatalf("second subscriber called %d times, want 2", second)
	}
}
