package models

import "time"

// Actor identifies who performed an operation.
type Actor struct {
	UID  string `json:"uid,omitempty" yaml:"uid"`
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// Booking is a single OR or ICU request. Kind is immutable after creation;
// Status and Outcome are independent axes (outcome never moves status).
type Booking struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // KindOR or KindICU

	MRN         string `json:"mrn,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	PatientWard string `json:"patient_ward,omitempty"`

	// Procedure holds the procedure (OR) or indication (ICU) text.
	Procedure           string `json:"procedure,omitempty"`
	Urgency             string `json:"urgency,omitempty"`
	PriorityNotes       string `json:"priority_notes,omitempty"`
	SpecialRequirements string `json:"special_requirements,omitempty"`

	Consultant               string `json:"consultant,omitempty"`
	ConsultantPhone          string `json:"consultant_phone,omitempty"`
	RequestingPhysician      string `json:"requesting_physician,omitempty"`
	RequestingPhysicianPhone string `json:"requesting_physician_phone,omitempty"`
	AnesthesiaContact        string `json:"anesthesia_contact,omitempty"` // OR only

	Status           string     `json:"status"`
	Outcome          string     `json:"outcome,omitempty"` // empty means not set
	OutcomeChangedAt *time.Time `json:"outcome_changed_at,omitempty"`

	// Bed assignment, populated on ICU confirmation only.
	Unit string `json:"unit,omitempty"`
	Room string `json:"room,omitempty"`

	RequestedDate *time.Time `json:"requested_date,omitempty"`

	CreatedBy     Actor     `json:"created_by"`
	UpdatedBy     Actor     `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// IsActive false means soft-deleted: hidden from active listings and
	// admission control but retained for audit and get-by-id.
	IsActive bool `json:"is_active"`
}

// HasOutcome reports whether a terminal classification has been recorded.
func (b *Booking) HasOutcome() bool {
	return b.Outcome != ""
}

// BookingFilter narrows list queries.
type BookingFilter struct {
	Kind       string
	Status     string
	ActiveOnly bool
	Offset     int
	Limit      int
}

// BookingStats is the registry summary over active bookings.
type BookingStats struct {
	TotalActive int64 `json:"total_active_bookings"`
	OR          int64 `json:"or_bookings"`
	ICU         int64 `json:"icu_bookings"`
	Pending     int64 `json:"pending_bookings"`
}
