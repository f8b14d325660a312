package engine

import "kinmark/internal/card"

// Reason classifies the outcome of a public operation for the
// presentation layer. No engine operation raises for these conditions;
// it reports and degrades to a no-op instead.
type Reason string

const (
	// ReasonOK means the operation ran; counts say what changed.
	// A zero count with ReasonOK means the state already satisfied the
	// request.
	ReasonOK Reason = "ok"

	// ReasonNoCollection means no host collection is open.
	ReasonNoCollection Reason = "no_collection"

	// ReasonNotFound means the referenced item or record no longer exists.
	ReasonNotFound Reason = "not_found"

	// ReasonTooFewRecords means the selection spans fewer than two
	// distinct records. Items of one record are already native siblings.
	ReasonTooFewRecords Reason = "too_few_records"

	// ReasonNoSuchGroup means the named group has no members.
	ReasonNoSuchGroup Reason = "no_such_group"

	// ReasonAmbiguousGroups means the selection already spans existing
	// groups and the caller has not said whether to reuse or create.
	// MarkResult.Existing carries the candidates; re-invoke with a
	// Resolution to proceed.
	ReasonAmbiguousGroups Reason = "ambiguous_groups"
)

// Resolution answers an ambiguous-groups choice request.
type Resolution int

const (
	// ResolveNone surfaces the ambiguity instead of deciding.
	ResolveNone Resolution = iota
	// ResolveUseExisting reuses the first existing group (name order).
	ResolveUseExisting
	// ResolveCreateNew generates a fresh group name.
	ResolveCreateNew
)

// MarkResult is the structured outcome of Mark and AddToGroup.
type MarkResult struct {
	Group    string
	Modified int
	Reason   Reason
	Existing []string
}

// UnmarkResult is the structured outcome of Unmark.
type UnmarkResult struct {
	Modified int
	Released int
	Reason   Reason
}

// AnswerResult is the structured outcome of OnAnswer.
type AnswerResult struct {
	Buried int
	Pushed int
	Reason Reason
}

// CatchUpResult is the structured outcome of CatchUp.
type CatchUpResult struct {
	Replayed int
	Buried   int
	Reason   Reason
}

// ReconcileResult is the structured outcome of OnProfileActivated.
type ReconcileResult struct {
	CatchUp     CatchUpResult
	Released    int
	Rescheduled int
	Reason      Reason
}

// ImportResult is the structured outcome of ImportLegacy.
type ImportResult struct {
	Groups   int
	Modified int
	Reason   Reason
}

// RecordInfo describes one record's group memberships, for display.
type RecordInfo struct {
	Record card.RecordID
	Groups []string
}
