// internal/workflow/balancer.go
package workflow

import (
	"github.com/google/uuid"
)

// Candidate is an inspector with its current count of open assignments.
type Candidate struct {
	InspectorID uuid.UUID `json:"inspector_id"`
	Name        string    `json:"name"`
	Load        int64     `json:"open_applications"`
}

// SelectLeastLoaded returns the candidate with the smallest load. Ties go to
// the earliest candidate in the slice.
func SelectLeastLoaded(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Load < best.Load {
			best = c
		}
	}
	return best, true
}
