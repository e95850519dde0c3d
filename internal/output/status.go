package output

import (
	"context"
	"sort"

	"github.com/bnema/waywall/internal/compositor"
)

// Status is a point-in-time view of the running engine.
type Status struct {
	Backend      string          `json:"backend"`
	Compositor   string          `json:"compositor"`
	Version      string          `json:"version"`
	Capabilities string          `json:"capabilities"`
	Surfaces     []SurfaceStatus `json:"surfaces"`
}

type SurfaceStatus struct {
	Output     string `json:"output"`
	OutputID   uint32 `json:"output_id"`
	Width      int32  `json:"width"`
	Height     int32  `json:"height"`
	Configured bool   `json:"configured"`
	Committed  bool   `json:"committed"`
}

// Ready counts surfaces that are configured and committed.
func (s Status) Ready() int {
	n := 0
	for _, surf := range s.Surfaces {
		if surf.Configured && surf.Committed {
			n++
		}
	}
	return n
}

// Status builds the snapshot. Loop goroutine only, see Snapshot.
func (m *Manager) Status() Status {
	st := Status{
		Backend:      m.backend.Name,
		Compositor:   m.backend.Info.Name,
		Version:      m.backend.Info.Version,
		Capabilities: m.backend.Capabilities().String(),
		Surfaces:     make([]SurfaceStatus, 0, len(m.surfaces)),
	}
	for id, s := range m.surfaces {
		w, h := s.Size()
		st.Surfaces = append(st.Surfaces, SurfaceStatus{
			Output:     outputName(s.Output()),
			OutputID:   uint32(id),
			Width:      w,
			Height:     h,
			Configured: s.Configured(),
			Committed:  s.Committed(),
		})
	}
	sort.Slice(st.Surfaces, func(i, j int) bool {
		return st.Surfaces[i].OutputID < st.Surfaces[j].OutputID
	})
	return st
}

// Snapshot fetches Status from another goroutine.
func (m *Manager) Snapshot(ctx context.Context) (Status, error) {
	var st Status
	err := m.Do(ctx, func() { st = m.Status() })
	return st, err
}

// Surface returns the surface on output id.
func (m *Manager) Surface(id compositor.OutputID) (*compositor.Surface, bool) {
	s, ok := m.surfaces[id]
	return s, ok
}
