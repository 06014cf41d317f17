package delay

import "testing"

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}

	d, err := New(16)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d.Capacity() != 16 {
		t.Fatalf("Capacity() = %d, want 16", d.Capacity())
	}
}

func TestSetDelayBounds(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := d.SetDelay(-1); err == nil {
		t.Fatal("expected error for negative delay")
	}

	if err := d.SetDelay(8); err == nil {
		t.Fatal("expected error for delay >= capacity")
	}

	if err := d.SetDelay(7); err != nil {
		t.Fatalf("SetDelay(7) error = %v", err)
	}

	if d.Delay() != 7 {
		t.Fatalf("Delay() = %d, want 7", d.Delay())
	}
}

func TestProcessDelaysSignal(t *testing.T) {
	d, err := New(32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := d.SetDelay(3); err != nil {
		t.Fatalf("SetDelay() error = %v", err)
	}

	src := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]float64, len(src))
	d.Process(dst, src)

	want := []float64{0, 0, 0, 1, 2, 3, 4, 5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %g, want %g", i, dst[i], want[i])
		}
	}
}

func TestProcessAcrossBlocksAndWrap(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := d.SetDelay(2); err != nil {
		t.Fatalf("SetDelay() error = %v", err)
	}

	var got []float64

	for block := 0; block < 3; block++ {
		src := make([]float64, 3)
		for i := range src {
			src[i] = float64(block*3 + i + 1)
		}

		dst := make([]float64, 3)
		d.Process(dst, src)
		got = append(got, dst...)
	}

	want := []float64{0, 0, 1, 2, 3, 4, 5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestZeroDelayPassthroughAndInPlace(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	buf := []float64{0.5, -0.25, 0.75}
	d.Process(buf, buf)

	want := []float64{0.5, -0.25, 0.75}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("in-place sample %d = %g, want %g", i, buf[i], want[i])
		}
	}
}

func TestClear(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := d.SetDelay(4); err != nil {
		t.Fatalf("SetDelay() error = %v", err)
	}

	src := []float64{1, 1, 1, 1}
	dst := make([]float64, 4)
	d.Process(dst, src)
	d.Clear()

	d.Process(dst, []float64{0, 0, 0, 0})
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("sample %d = %g after Clear, want 0", i, v)
		}
	}
}
