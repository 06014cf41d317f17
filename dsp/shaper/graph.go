package shaper

import "github.com/cwbudde/algo-shaper/dsp/mesh"

// resampleGraphs reevaluates both display graphs against the current curve
// and marks them dirty. Called on curve rebuild only; the X coordinates are
// fixed at construction.
func (s *Shaper) resampleGraphs() {
	for i := range GraphDots {
		s.mem.linY[i] = s.cur.eval(s.mem.linX[i])
		s.mem.logY[i] = s.cur.eval(s.mem.logX[i])
	}

	s.linDirty = true
	s.logDirty = true

	if s.onGraphUpdate != nil {
		s.onGraphUpdate()
	}
}

// OnGraphUpdate registers a callback invoked whenever the display graphs
// have been resampled. Pass nil to unregister.
func (s *Shaper) OnGraphUpdate(fn func()) {
	s.onGraphUpdate = fn
}

// UIActivated marks both graphs dirty so a newly shown UI receives the
// current curve on the next sync.
func (s *Shaper) UIActivated() {
	s.linDirty = true
	s.logDirty = true
}

// LinGraph returns the linear-axis graph rows. The slices are views into
// internal storage, valid until the next settings update.
func (s *Shaper) LinGraph() (x, y []float64) {
	return s.mem.linX, s.mem.linY
}

// LogGraph returns the logarithmic-axis graph rows under the same rules as
// LinGraph.
func (s *Shaper) LogGraph() (x, y []float64) {
	return s.mem.logX, s.mem.logY
}

// SyncMeshes copies dirty graphs into the UI transfer buffers. A graph is
// copied only when its mesh reports empty, and its dirty flag clears only on
// a successful transfer; data the UI has not consumed is never overwritten.
// Either mesh may be nil.
func (s *Shaper) SyncMeshes(lin, log *mesh.Mesh) {
	if s.linDirty && lin != nil && lin.IsEmpty() {
		if syncMesh(lin, s.mem.linX, s.mem.linY) {
			s.linDirty = false
		}
	}

	if s.logDirty && log != nil && log.IsEmpty() {
		if syncMesh(log, s.mem.logX, s.mem.logY) {
			s.logDirty = false
		}
	}
}

func syncMesh(m *mesh.Mesh, x, y []float64) bool {
	n := len(x)
	if n > m.Capacity() {
		n = m.Capacity()
	}

	copy(m.RowX(), x[:n])
	copy(m.RowY(), y[:n])

	return m.Commit(n) == nil
}
