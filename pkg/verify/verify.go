// Package verify evaluates whether an assembly is complete.
package verify

import (
	"sort"

	"github.com/chazu/flatpack/pkg/assembly"
)

// Verify reports whether every part in s is snapped. An empty state
// verifies trivially.
func Verify(s assembly.State) bool {
	for _, ps := range s {
		if !ps.IsSnapped {
			return false
		}
	}
	return true
}

// Progress summarizes how far an assembly has come.
type Progress struct {
	Snapped int
	Total   int
	Loose   []assembly.PartID // unsnapped parts, sorted
}

// Complete reports whether no part is loose.
func (p Progress) Complete() bool {
	return len(p.Loose) == 0
}

// Report computes the progress of s. Its Complete result always agrees
// with Verify.
func Report(s assembly.State) Progress {
	p := Progress{Total: len(s)}
	for id, ps := range s {
		if ps.IsSnapped {
			p.Snapped++
			continue
		}
		p.Loose = append(p.Loose, id)
	}
	sort.Slice(p.Loose, func(i, j int) bool { return p.Loose[i] < p.Loose[j] })
	return p
}
