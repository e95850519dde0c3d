package compositor

import "fmt"

// OutputID is a stable key for an output: the Wayland global name or the RandR
// output id.
type OutputID uint32

// Output is a display as enumerated by the backend.
type Output struct {
	ID          OutputID
	Name        string
	Make        string
	Model       string
	Description string

	X, Y          int32
	Width, Height int32
	// Physical size in millimetres.
	PhysicalWidth, PhysicalHeight int32
	Scale                         int32
	Transform                     int32
	RefreshMHz                    int32
}

// Identifier returns the connector name, else the model, else "unknown".
func (o *Output) Identifier() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Model != "":
		return o.Model
	default:
		return "unknown"
	}
}

func (o *Output) String() string {
	return fmt.Sprintf("%s (%dx%d+%d+%d)", o.Identifier(), o.Width, o.Height, o.X, o.Y)
}

// OutputSet is an arena of outputs keyed by id. Iteration follows insertion order
// so "first output" is stable.
type OutputSet struct {
	byID  map[OutputID]*Output
	order []OutputID
}

func NewOutputSet() *OutputSet {
	return &OutputSet{byID: make(map[OutputID]*Output)}
}

// Insert adds o under o.ID. A zero or already used id is rejected.
func (s *OutputSet) Insert(o *Output) error {
	if o == nil || o.ID == 0 {
		return fmt.Errorf("output needs a non-zero id")
	}
	if _, ok := s.byID[o.ID]; ok {
		return fmt.Errorf("output %d already present", o.ID)
	}
	s.byID[o.ID] = o
	s.order = append(s.order, o.ID)
	return nil
}

// Remove drops the output and returns it.
func (s *OutputSet) Remove(id OutputID) (*Output, bool) {
	o, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return o, true
}

func (s *OutputSet) Get(id OutputID) (*Output, bool) {
	o, ok := s.byID[id]
	return o, ok
}

// First returns the earliest inserted output still present.
func (s *OutputSet) First() (*Output, bool) {
	if len(s.order) == 0 {
		return nil, false
	}
	return s.byID[s.order[0]], true
}

// FindByName matches Identifier().
func (s *OutputSet) FindByName(name string) (*Output, bool) {
	for _, id := range s.order {
		if o := s.byID[id]; o.Identifier() == name {
			return o, true
		}
	}
	return nil, false
}

func (s *OutputSet) All() []*Output {
	out := make([]*Output, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *OutputSet) Len() int {
	return len(s.order)
}
