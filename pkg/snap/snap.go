// Package snap decides whether a released part locks onto an anchored
// neighbor, and where it ends up when it does.
package snap

import (
	"github.com/chazu/flatpack/pkg/assembly"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultDistance is the snap tolerance used when none is configured.
const DefaultDistance = 1.0

// Match describes a qualifying connection found by Resolve.
type Match struct {
	PartID        assembly.PartID // the released part
	ConnectionKey string          // point on the released part
	TargetPartID  assembly.PartID // anchored part it connects to
	TargetKey     string          // point on the anchored part
	Position      v3.Vec          // corrected position for the released part
}

// Resolve scans the released part's connection points in declaration order
// and, for each, the snapped parts of the model in declaration order. The
// first target point closer than distance wins; there is no search for the
// globally closest match. The returned position puts the matched point
// exactly on the target point. Resolve reports false for unknown or already
// snapped parts and when nothing is in range. It only reads s.
func Resolve(s assembly.State, m *assembly.Model, id assembly.PartID, distance float64) (Match, bool) {
	own := m.Part(id)
	ps, ok := s[id]
	if own == nil || !ok || ps.IsSnapped {
		return Match{}, false
	}

	for _, c := range own.Points {
		ownWorld := ps.Position.Add(c.LocalOffset)

		for _, other := range m.Parts() {
			if other.ID == id || !s.Snapped(other.ID) {
				continue
			}
			d, ok := other.Point(c.TargetKey)
			if !ok {
				continue
			}
			otherWorld := s[other.ID].Position.Add(d.LocalOffset)
			if otherWorld.Sub(ownWorld).Length() < distance {
				return Match{
					PartID:        id,
					ConnectionKey: c.Key,
					TargetPartID:  other.ID,
					TargetKey:     d.Key,
					Position:      otherWorld.Sub(c.LocalOffset),
				}, true
			}
		}
	}
	return Match{}, false
}

// ResolveAndApply runs Resolve against s and applies the match. It returns
// s unchanged and false when there is no match.
func ResolveAndApply(s assembly.State, m *assembly.Model, id assembly.PartID, distance float64) (assembly.State, Match, bool) {
	match, ok := Resolve(s, m, id, distance)
	if !ok {
		return s, Match{}, false
	}
	next, err := assembly.ApplySnap(s, id, match.Position)
	if err != nil {
		// Resolve already rejected unknown and snapped parts.
		return s, Match{}, false
	}
	return next, match, true
}
