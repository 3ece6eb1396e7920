package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_OR(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to seen_accepted", StatusPending, StatusSeenAccepted, true},
		{"pending to postponed", StatusPending, StatusPostponed, true},
		{"pending skips to awaiting_resources", StatusPending, StatusAwaitingResources, false},
		{"pending skips to operation_done", StatusPending, StatusOperationDone, false},
		{"seen_accepted to awaiting_resources", StatusSeenAccepted, StatusAwaitingResources, true},
		{"seen_accepted back to pending", StatusSeenAccepted, StatusPending, false},
		{"awaiting_resources to operation_done", StatusAwaitingResources, StatusOperationDone, true},
		{"postponed back to pending", StatusPostponed, StatusPending, true},
		{"postponed to seen_accepted", StatusPostponed, StatusSeenAccepted, true},
		{"postponed to awaiting_resources", StatusPostponed, StatusAwaitingResources, true},
		{"postponed to operation_done", StatusPostponed, StatusOperationDone, false},
		{"operation_done is terminal", StatusOperationDone, StatusPending, false},
		{"same status is allowed", StatusPending, StatusPending, true},
		{"icu status rejected on or", StatusPending, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(KindOR, tt.from, tt.to))
		})
	}
}

func TestCanTransition_ICU(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to no_bed_available", StatusPending, StatusNoBedAvailable, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"no_bed_available to confirmed", StatusNoBedAvailable, StatusConfirmed, true},
		{"no_bed_available back to pending", StatusNoBedAvailable, StatusPending, true},
		{"confirmed is terminal", StatusConfirmed, StatusPending, false},
		{"rejected is terminal", StatusRejected, StatusPending, false},
		{"or status rejected on icu", StatusPending, StatusSeenAccepted, false},
		{"same status is allowed", StatusNoBedAvailable, StatusNoBedAvailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(KindICU, tt.from, tt.to))
		})
	}
}

func TestValidStatusAndOutcomeVocabularies(t *testing.T) {
	assert.True(t, ValidStatus(KindOR, StatusOperationDone))
	assert.False(t, ValidStatus(KindOR, StatusConfirmed))
	assert.True(t, ValidStatus(KindICU, StatusNoBedAvailable))
	assert.False(t, ValidStatus(KindICU, StatusSeenAccepted))
	assert.False(t, ValidStatus("WARD", StatusPending))

	assert.True(t, ValidOutcome(KindOR, OutcomeExecuted))
	assert.True(t, ValidOutcome(KindOR, OutcomePostponed))
	assert.False(t, ValidOutcome(KindOR, OutcomeAdmitted))
	assert.True(t, ValidOutcome(KindICU, OutcomeBackToWard))
	assert.False(t, ValidOutcome(KindICU, OutcomeExecuted))
	assert.False(t, ValidOutcome(KindICU, ""))
}

func TestValidUrgency(t *testing.T) {
	assert.True(t, ValidUrgency(KindOR, UrgencyE1))
	assert.True(t, ValidUrgency(KindOR, UrgencyE3))
	assert.False(t, ValidUrgency(KindOR, UrgencyCritical))
	assert.True(t, ValidUrgency(KindICU, UrgencyCritical))
	assert.True(t, ValidUrgency(KindICU, UrgencyElective))
	assert.False(t, ValidUrgency(KindICU, UrgencyE1))
}

func TestReschedulable(t *testing.T) {
	assert.True(t, Reschedulable(StatusPending))
	assert.True(t, Reschedulable(StatusNoBedAvailable))
	assert.False(t, Reschedulable(StatusConfirmed))
	assert.False(t, Reschedulable(StatusRejected))
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindOR))
	assert.True(t, ValidKind(KindICU))
	assert.False(t, ValidKind("or"))
	assert.False(t, ValidKind(""))
}
