// Package card defines the domain types shared by the collection adapter
// and the coordination engine: records, items, reviews, and the closed
// phase/activity enumerations.
//
// Identifiers are assigned by the host at creation time and never change,
// so ascending identifier order is a stable total order across devices.
// The engine relies on that order for every sequencing decision.
package card

// RecordID identifies a host record (a note). Records own items.
type RecordID int64

// ItemID identifies a single reviewable item (a card).
type ItemID int64

// Phase is the scheduler phase of an item.
//
// The due value is phase-dependent: a queue position for new items,
// a scheduling-day offset for review items.
type Phase string

const (
	PhaseNew         Phase = "new"
	PhaseLearning    Phase = "learning"
	PhaseReview      Phase = "review"
	PhaseDayLearning Phase = "daylearning"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseNew, PhaseLearning, PhaseReview, PhaseDayLearning:
		return true
	}
	return false
}

// Activity is the activity state of an item, orthogonal to its phase.
// Suspension is stronger than burial: a suspended item never surfaces
// until explicitly unsuspended, a buried one returns the next day.
type Activity string

const (
	ActivityActive    Activity = "active"
	ActivityBuried    Activity = "buried"
	ActivitySuspended Activity = "suspended"
)

// Valid reports whether a is one of the known activity states.
func (a Activity) Valid() bool {
	switch a {
	case ActivityActive, ActivityBuried, ActivitySuspended:
		return true
	}
	return false
}

// Record is a host-owned container of items. The engine only ever reads
// and rewrites its label set; everything else belongs to the host.
type Record struct {
	ID     RecordID
	Labels []string
}

// HasLabel reports whether the record carries the exact label.
func (r Record) HasLabel(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Item is a single reviewable unit. The engine issues state-transition
// commands through the host; it never persists Item fields itself.
type Item struct {
	ID       ItemID
	RecordID RecordID
	Phase    Phase
	Activity Activity
	Due      int
}

// Review is one entry of the host's review history. ID is an
// epoch-millisecond sequence value assigned by the host scheduler.
type Review struct {
	ID      int64
	ItemID  ItemID
	Outcome int
}
