package models

// Closed transition tables per booking kind. A status change is legal only if
// the target appears in the current status's row; the vocabulary itself is the
// set of keys. Outcome is a separate axis validated against outcomeVocab.

var orStatusFlow = map[string][]string{
	StatusPending:           {StatusSeenAccepted, StatusPostponed},
	StatusSeenAccepted:      {StatusAwaitingResources, StatusPostponed},
	StatusAwaitingResources: {StatusOperationDone, StatusPostponed},
	StatusPostponed:         {StatusPending, StatusSeenAccepted, StatusAwaitingResources},
	StatusOperationDone:     {},
}

var icuStatusFlow = map[string][]string{
	StatusPending:        {StatusConfirmed, StatusNoBedAvailable, StatusRejected},
	StatusNoBedAvailable: {StatusConfirmed, StatusRejected, StatusPending},
	StatusConfirmed:      {},
	StatusRejected:       {},
}

var orOutcomes = []string{OutcomeExecuted, OutcomeCancelled, OutcomePostponed, OutcomeCompleted}

var icuOutcomes = []string{OutcomeAdmitted, OutcomeBackToWard, OutcomeORCancelled}

func statusFlow(kind string) map[string][]string {
	switch kind {
	case KindOR:
		return orStatusFlow
	case KindICU:
		return icuStatusFlow
	default:
		return nil
	}
}

// ValidKind reports whether kind is one of the two booking kinds.
func ValidKind(kind string) bool {
	return kind == KindOR || kind == KindICU
}

// StatusVocabulary returns every legal status for the kind.
func StatusVocabulary(kind string) []string {
	flow := statusFlow(kind)
	out := make([]string, 0, len(flow))
	for s := range flow {
		out = append(out, s)
	}
	return out
}

// OutcomeVocabulary returns every legal outcome for the kind.
func OutcomeVocabulary(kind string) []string {
	switch kind {
	case KindOR:
		return orOutcomes
	case KindICU:
		return icuOutcomes
	default:
		return nil
	}
}

// ValidStatus reports whether status belongs to the kind's vocabulary.
func ValidStatus(kind, status string) bool {
	_, ok := statusFlow(kind)[status]
	return ok
}

// ValidOutcome reports whether outcome belongs to the kind's vocabulary.
func ValidOutcome(kind, outcome string) bool {
	for _, o := range OutcomeVocabulary(kind) {
		if o == outcome {
			return true
		}
	}
	return false
}

// CanTransition reports whether the status move from -> to is legal for the
// kind. Same-status moves are allowed and treated as no-ops upstream.
func CanTransition(kind, from, to string) bool {
	if from == to {
		return ValidStatus(kind, from)
	}
	targets, ok := statusFlow(kind)[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// ValidUrgency reports whether urgency belongs to the kind's tier vocabulary.
func ValidUrgency(kind, urgency string) bool {
	switch kind {
	case KindOR:
		return urgency == UrgencyE1 || urgency == UrgencyE2 || urgency == UrgencyE3
	case KindICU:
		return urgency == UrgencyCritical || urgency == UrgencyElective
	default:
		return false
	}
}

// Reschedulable reports whether an ICU request in the given status may still
// have its requested date moved. Confirmation closes the window.
func Reschedulable(status string) bool {
	return status == StatusPending || status == StatusNoBedAvailable
}
