package scheduling

// Conflict records an overlap between a candidate interval and an already
// admitted one, for presentation to callers.
type Conflict struct {
	WithEventID string
	ResourceID  string
}

// Overlaps reports whether two intervals on the same resource collide.
//
// Intervals are half-open: an interval ending exactly when another begins
// does not overlap, so back-to-back bookings are legal. Containment and
// identity both count as overlap. The predicate is meaningful only when both
// intervals share a resource; intervals on different resources never
// conflict.
func Overlaps(a, b Interval) bool {
	if a.ResourceID != b.ResourceID {
		return false
	}
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// DetectConflicts tests the candidate against every existing interval and
// returns one Conflict per collision. Entries whose ID matches exclude are
// skipped, which lets a replacement candidate ignore its own prior self.
//
// This is the single source of truth for overlap decisions: the admission
// protocol and any advisory pre-validation must both go through it.
func DetectConflicts(existing []Interval, candidate Interval, exclude string) []Conflict {
	var conflicts []Conflict
	for _, iv := range existing {
		if exclude != "" && iv.ID == exclude {
			continue
		}
		if Overlaps(iv, candidate) {
			conflicts = append(conflicts, Conflict{
				WithEventID: iv.ID,
				ResourceID:  iv.ResourceID,
			})
		}
	}
	return conflicts
}
