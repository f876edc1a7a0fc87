package assembly

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PartState is the run-time state of one part.
type PartState struct {
	Position  v3.Vec
	IsSnapped bool
}

// State maps every part id of a model to its run-time state. Transitions
// never mutate a State in place; they return a new one.
type State map[PartID]PartState

// Initialize places every part at its initial position. Static parts start
// snapped.
func Initialize(m *Model) State {
	s := make(State, m.Len())
	for _, p := range m.Parts() {
		s[p.ID] = PartState{
			Position:  p.InitialPosition,
			IsSnapped: p.IsStatic,
		}
	}
	return s
}

// Reset is equivalent to Initialize.
func Reset(m *Model) State {
	return Initialize(m)
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	c := make(State, len(s))
	for id, ps := range s {
		c[id] = ps
	}
	return c
}

// Snapped reports whether the part exists and is snapped.
func (s State) Snapped(id PartID) bool {
	return s[id].IsSnapped
}

// Move returns a copy of s with the part at newPosition. Moving an unknown
// or snapped part returns s unchanged together with ErrInvalidMove.
// Moving never snaps.
func Move(s State, id PartID, newPosition v3.Vec) (State, error) {
	ps, err := movable(s, id)
	if err != nil {
		return s, fmt.Errorf("move %q: %w", id, err)
	}
	next := s.Clone()
	ps.Position = newPosition
	next[id] = ps
	return next, nil
}

// ApplySnap returns a copy of s with the part locked at newPosition.
// The same rejection rules as Move apply.
func ApplySnap(s State, id PartID, newPosition v3.Vec) (State, error) {
	ps, err := movable(s, id)
	if err != nil {
		return s, fmt.Errorf("snap %q: %w", id, err)
	}
	next := s.Clone()
	ps.Position = newPosition
	ps.IsSnapped = true
	next[id] = ps
	return next, nil
}

func movable(s State, id PartID) (PartState, error) {
	ps, ok := s[id]
	if !ok {
		return PartState{}, fmt.Errorf("%w: unknown part", ErrInvalidMove)
	}
	if ps.IsSnapped {
		return PartState{}, fmt.Errorf("%w: part is snapped", ErrInvalidMove)
	}
	return ps, nil
}
