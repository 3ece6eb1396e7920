package models

import "time"

// AuditEntry is one row of the append-only change ledger. Entries are never
// updated or deleted after insert; they survive soft deletion of the booking.
type AuditEntry struct {
	ID            int64     `json:"id"`
	BookingID     string    `json:"booking_id"`
	Action        string    `json:"action"`
	FieldChanged  string    `json:"field_changed,omitempty"`
	OldValue      string    `json:"old_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
	ChangedByName string    `json:"changed_by_name,omitempty"`
	ChangedByRole string    `json:"changed_by_role,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Notes         string    `json:"notes,omitempty"`
}

// FieldChange is a single observed difference between two booking revisions.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// DiffBookings compares two revisions of the same booking field by field and
// returns one change per field whose stored value actually differs. Values
// are stringified the way they land in the ledger. Bookkeeping columns
// (last_updated_at, updated_by) are deliberately not part of the diff.
func DiffBookings(before, after *Booking) []FieldChange {
	var changes []FieldChange
	add := func(field, oldV, newV string) {
		if oldV != newV {
			changes = append(changes, FieldChange{Field: field, Old: oldV, New: newV})
		}
	}

	add("mrn", before.MRN, after.MRN)
	add("patient_name", before.PatientName, after.PatientName)
	add("patient_ward", before.PatientWard, after.PatientWard)
	add("procedure", before.Procedure, after.Procedure)
	add("urgency", before.Urgency, after.Urgency)
	add("priority_notes", before.PriorityNotes, after.PriorityNotes)
	add("special_requirements", before.SpecialRequirements, after.SpecialRequirements)
	add("consultant", before.Consultant, after.Consultant)
	add("consultant_phone", before.ConsultantPhone, after.ConsultantPhone)
	add("requesting_physician", before.RequestingPhysician, after.RequestingPhysician)
	add("requesting_physician_phone", before.RequestingPhysicianPhone, after.RequestingPhysicianPhone)
	add("anesthesia_contact", before.AnesthesiaContact, after.AnesthesiaContact)
	add("status", before.Status, after.Status)
	add("outcome", before.Outcome, after.Outcome)
	add("unit", before.Unit, after.Unit)
	add("room", before.Room, after.Room)
	add("requested_date", formatOptionalTime(before.RequestedDate), formatOptionalTime(after.RequestedDate))
	add("is_active", formatBool(before.IsActive), formatBool(after.IsActive))

	return changes
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
