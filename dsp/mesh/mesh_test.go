package mesh

import "testing"

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}

	m, err := New(256)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if m.Capacity() != 256 {
		t.Fatalf("Capacity() = %d, want 256", m.Capacity())
	}

	if !m.IsEmpty() {
		t.Fatal("new mesh should be empty")
	}
}

func TestCommitAndConsume(t *testing.T) {
	m, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	x := m.RowX()
	y := m.RowY()
	for i := range 4 {
		x[i] = float64(i)
		y[i] = float64(i) * 2
	}

	if err := m.Commit(4); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if m.IsEmpty() {
		t.Fatal("mesh should be full after Commit")
	}

	gx, gy, n := m.Rows()
	if n != 4 || len(gx) != 4 || len(gy) != 4 {
		t.Fatalf("Rows() n = %d, len = %d/%d, want 4", n, len(gx), len(gy))
	}

	for i := range 4 {
		if gx[i] != float64(i) || gy[i] != float64(i)*2 {
			t.Fatalf("point %d = (%g, %g), want (%d, %d)", i, gx[i], gy[i], i, i*2)
		}
	}

	m.Consume()
	if !m.IsEmpty() {
		t.Fatal("mesh should be empty after Consume")
	}
}

func TestCommitGuards(t *testing.T) {
	m, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Commit(5); err == nil {
		t.Fatal("expected error for oversized commit")
	}

	if err := m.Commit(-1); err == nil {
		t.Fatal("expected error for negative commit")
	}

	if err := m.Commit(4); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// A second commit before the consumer drains must be rejected.
	if err := m.Commit(2); err == nil {
		t.Fatal("expected error for commit over unconsumed contents")
	}

	m.Consume()
	if err := m.Commit(2); err != nil {
		t.Fatalf("Commit() after Consume error = %v", err)
	}
}
