package models

const (
	KindOR  = "OR"
	KindICU = "ICU"
)

// Workflow statuses. OR and ICU use disjoint vocabularies except for pending.
const (
	StatusPending = "pending"

	// OR
	StatusSeenAccepted      = "seen_accepted"
	StatusAwaitingResources = "awaiting_resources"
	StatusOperationDone     = "operation_done"
	StatusPostponed         = "postponed"

	// ICU
	StatusConfirmed      = "confirmed"
	StatusNoBedAvailable = "no_bed_available"
	StatusRejected       = "rejected"
)

// Outcomes, the terminal classification axis.
const (
	// OR
	OutcomeExecuted  = "executed"
	OutcomeCancelled = "cancelled"
	OutcomePostponed = "postponed"
	OutcomeCompleted = "completed"

	// ICU
	OutcomeAdmitted    = "admitted"
	OutcomeBackToWard  = "back_to_ward"
	OutcomeORCancelled = "or_cancelled"
)

// OR urgency tiers.
const (
	UrgencyE1 = "E1" // within 1 hour
	UrgencyE2 = "E2" // within 6 hours
	UrgencyE3 = "E3" // within 24 hours
)

// ICU urgency tiers.
const (
	UrgencyCritical = "Critical"
	UrgencyElective = "Elective"
)

// Audit actions.
const (
	ActionCreated        = "created"
	ActionFieldUpdated   = "field_updated"
	ActionStatusUpdated  = "status_updated"
	ActionOutcomeUpdated = "outcome_updated"
	ActionRescheduled    = "rescheduled"
	ActionConfirmed      = "confirmed"
	ActionCommentAdded   = "comment_added"
	ActionSoftDeleted    = "soft_deleted"
)
