// Package mesh provides the transfer buffer moving sampled response curves
// from the audio thread to a UI consumer. The handoff is single-producer,
// single-consumer and guarded only by an emptiness flag: the producer writes
// when empty, the consumer reads when full, and neither blocks.
package mesh

import (
	"fmt"
	"sync/atomic"
)

// Mesh holds one X row and one Y row of up to capacity points.
type Mesh struct {
	x []float64
	y []float64
	n int

	full atomic.Bool
}

// New returns a mesh able to hold capacity points per row.
func New(capacity int) (*Mesh, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("mesh: capacity must be > 0: %d", capacity)
	}

	return &Mesh{
		x: make([]float64, capacity),
		y: make([]float64, capacity),
	}, nil
}

// Capacity returns the per-row point capacity.
func (m *Mesh) Capacity() int {
	return len(m.x)
}

// IsEmpty reports whether the mesh is available for the producer to fill.
func (m *Mesh) IsEmpty() bool {
	return !m.full.Load()
}

// RowX returns the X row for writing. Only the producer may touch it, and
// only while the mesh is empty.
func (m *Mesh) RowX() []float64 {
	return m.x
}

// RowY returns the Y row for writing under the same rules as RowX.
func (m *Mesh) RowY() []float64 {
	return m.y
}

// Commit publishes n points to the consumer. It fails if the previous
// contents have not been consumed yet or n exceeds the capacity.
func (m *Mesh) Commit(n int) error {
	if n < 0 || n > len(m.x) {
		return fmt.Errorf("mesh: commit size out of range [0, %d]: %d", len(m.x), n)
	}

	if m.full.Load() {
		return fmt.Errorf("mesh: previous contents not consumed")
	}

	m.n = n
	m.full.Store(true)

	return nil
}

// Rows returns the committed rows and point count. The slices stay valid
// until Consume; the consumer must not call Rows on an empty mesh.
func (m *Mesh) Rows() (x, y []float64, n int) {
	return m.x[:m.n], m.y[:m.n], m.n
}

// Consume hands the mesh back to the producer.
func (m *Mesh) Consume() {
	m.n = 0
	m.full.Store(false)
}
