package service

import (
	"context"
	"fmt"
	"time"

	"wardbook/internal/domain"
	"wardbook/internal/events"
	"wardbook/internal/metrics"
	"wardbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: admission control at creation,
// the per-kind state machine on every mutation, and the audit entries that
// ride in the same transaction as each accepted write.
type BookingService struct {
	store    domain.Store
	clock    domain.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(store domain.Store, clk domain.Clock, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		clock:    clk,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateBookingInput carries the caller-supplied fields for a new request.
// Status always starts at pending and outcome unset; ICU bed assignment only
// arrives with confirmation.
type CreateBookingInput struct {
	Kind                     string        `json:"kind"`
	MRN                      string        `json:"mrn"`
	PatientName              string        `json:"patient_name"`
	PatientWard              string        `json:"patient_ward"`
	Procedure                string        `json:"procedure"`
	Urgency                  string        `json:"urgency"`
	PriorityNotes            string        `json:"priority_notes"`
	SpecialRequirements      string        `json:"special_requirements"`
	Consultant               string        `json:"consultant"`
	ConsultantPhone          string        `json:"consultant_phone"`
	RequestingPhysician      string        `json:"requesting_physician"`
	RequestingPhysicianPhone string        `json:"requesting_physician_phone"`
	AnesthesiaContact        string        `json:"anesthesia_contact"`
	RequestedDate            *time.Time    `json:"requested_date"`
	CreatedBy                models.Actor  `json:"created_by"`
}

func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if !models.ValidKind(in.Kind) {
		return nil, &domain.ValidationError{
			Field: "kind", Value: in.Kind,
			Allowed: []string{models.KindOR, models.KindICU},
		}
	}
	if in.Urgency != "" && !models.ValidUrgency(in.Kind, in.Urgency) {
		return nil, &domain.ValidationError{
			Field: "urgency", Value: in.Urgency,
			Allowed: urgencyVocabulary(in.Kind),
		}
	}
	if in.Kind == models.KindICU && in.AnesthesiaContact != "" {
		return nil, &domain.ValidationError{
			Field:   "anesthesia_contact",
			Value:   in.AnesthesiaContact,
			Message: "anesthesia_contact applies to OR bookings only",
		}
	}

	now := s.clock.Now()
	booking := &models.Booking{
		ID:                       uuid.NewString(),
		Kind:                     in.Kind,
		MRN:                      in.MRN,
		PatientName:              in.PatientName,
		PatientWard:              in.PatientWard,
		Procedure:                in.Procedure,
		Urgency:                  in.Urgency,
		PriorityNotes:            in.PriorityNotes,
		SpecialRequirements:      in.SpecialRequirements,
		Consultant:               in.Consultant,
		ConsultantPhone:          in.ConsultantPhone,
		RequestingPhysician:      in.RequestingPhysician,
		RequestingPhysicianPhone: in.RequestingPhysicianPhone,
		AnesthesiaContact:        in.AnesthesiaContact,
		Status:                   models.StatusPending,
		RequestedDate:            in.RequestedDate,
		CreatedBy:                in.CreatedBy,
		UpdatedBy:                in.CreatedBy,
		CreatedAt:                now,
		LastUpdatedAt:            now,
		IsActive:                 true,
	}

	entry := models.AuditEntry{
		BookingID:     booking.ID,
		Action:        models.ActionCreated,
		ChangedByName: in.CreatedBy.Name,
		ChangedByRole: in.CreatedBy.Role,
		Timestamp:     now,
		Notes:         fmt.Sprintf("New %s booking created", in.Kind),
	}

	if err := s.store.InsertBooking(ctx, booking, entry); err != nil {
		if domain.IsConflict(err) {
			metrics.IncAdmissionConflict(in.Kind)
		}
		return nil, err
	}

	metrics.IncBookingCreated(in.Kind)
	s.publishEvent(events.EventBookingCreated, booking, in.CreatedBy, now)
	return booking, nil
}

// BookingUpdate is a partial field edit. Nil pointers leave fields untouched.
// Status and outcome have dedicated operations and are not editable here;
// IsActive is, which is the administrative path back from a soft delete.
type BookingUpdate struct {
	MRN                      *string    `json:"mrn"`
	PatientName              *string    `json:"patient_name"`
	PatientWard              *string    `json:"patient_ward"`
	Procedure                *string    `json:"procedure"`
	Urgency                  *string    `json:"urgency"`
	PriorityNotes            *string    `json:"priority_notes"`
	SpecialRequirements      *string    `json:"special_requirements"`
	Consultant               *string    `json:"consultant"`
	ConsultantPhone          *string    `json:"consultant_phone"`
	RequestingPhysician      *string    `json:"requesting_physician"`
	RequestingPhysicianPhone *string    `json:"requesting_physician_phone"`
	AnesthesiaContact        *string    `json:"anesthesia_contact"`
	RequestedDate            *time.Time `json:"requested_date"`
	IsActive                 *bool      `json:"is_active"`
}

func (s *BookingService) UpdateFields(ctx context.Context, id string, update BookingUpdate, actor models.Actor) (*models.Booking, error) {
	var mutated bool
	booking, err := s.store.MutateBooking(ctx, id, func(b *models.Booking) ([]models.AuditEntry, error) {
		if update.Urgency != nil && *update.Urgency != "" && !models.ValidUrgency(b.Kind, *update.Urgency) {
			return nil, &domain.ValidationError{
				Field: "urgency", Value: *update.Urgency,
				Allowed: urgencyVocabulary(b.Kind),
			}
		}

		before := *b
		applyUpdate(b, update)

		changes := models.DiffBookings(&before, b)
		if len(changes) == 0 {
			return nil, nil
		}

		now := s.clock.Now()
		b.LastUpdatedAt = now
		b.UpdatedBy = actor

		entries := make([]models.AuditEntry, 0, len(changes))
		for _, c := range changes {
			entries = append(entries, s.changeEntry(b.ID, models.ActionFieldUpdated, c, actor, now, ""))
		}
		mutated = true
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	if mutated {
		metrics.IncTransition(booking.Kind, models.ActionFieldUpdated)
		s.publishEvent(events.EventBookingUpdated, booking, actor, booking.LastUpdatedAt)
	}
	return booking, nil
}

func applyUpdate(b *models.Booking, u BookingUpdate) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&b.MRN, u.MRN)
	setString(&b.PatientName, u.PatientName)
	setString(&b.PatientWard, u.PatientWard)
	setString(&b.Procedure, u.Procedure)
	setString(&b.Urgency, u.Urgency)
	setString(&b.PriorityNotes, u.PriorityNotes)
	setString(&b.SpecialRequirements, u.SpecialRequirements)
	setString(&b.Consultant, u.Consultant)
	setString(&b.ConsultantPhone, u.ConsultantPhone)
	setString(&b.RequestingPhysician, u.RequestingPhysician)
	setString(&b.RequestingPhysicianPhone, u.RequestingPhysicianPhone)
	setString(&b.AnesthesiaContact, u.AnesthesiaContact)
	if u.RequestedDate != nil {
		d := *u.RequestedDate
		b.RequestedDate = &d
	}
	if u.IsActive != nil {
		b.IsActive = *u.IsActive
	}
}

func (s *BookingService) UpdateStatus(ctx context.Context, id, newStatus string, actor models.Actor) (*models.Booking, error) {
	var mutated bool
	booking, err := s.store.MutateBooking(ctx, id, func(b *models.Booking) ([]models.AuditEntry, error) {
		if !models.ValidStatus(b.Kind, newStatus) {
			return nil, &domain.ValidationError{
				Field: "status", Value: newStatus,
				Allowed: models.StatusVocabulary(b.Kind),
			}
		}
		if !models.CanTransition(b.Kind, b.Status, newStatus) {
			return nil, &domain.ValidationError{
				Field: "status", Value: newStatus,
				Message: fmt.Sprintf("illegal %s transition from %s to %s", b.Kind, b.Status, newStatus),
			}
		}
		if b.Status == newStatus {
			return nil, nil
		}

		now := s.clock.Now()
		change := models.FieldChange{Field: "status", Old: b.Status, New: newStatus}
		b.Status = newStatus
		b.LastUpdatedAt = now
		b.UpdatedBy = actor

		mutated = true
		return []models.AuditEntry{
			s.changeEntry(b.ID, models.ActionStatusUpdated, change, actor, now, ""),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if mutated {
		metrics.IncTransition(booking.Kind, models.ActionStatusUpdated)
		s.publishEvent(events.EventStatusChanged, booking, actor, booking.LastUpdatedAt)
	}
	return booking, nil
}

// UpdateOutcome records the terminal classification. The status axis is
// untouched: a pending ICU request can be marked admitted without moving out
// of pending.
func (s *BookingService) UpdateOutcome(ctx context.Context, id, outcome string, actor models.Actor) (*models.Booking, error) {
	var mutated bool
	booking, err := s.store.MutateBooking(ctx, id, func(b *models.Booking) ([]models.AuditEntry, error) {
		if !models.ValidOutcome(b.Kind, outcome) {
			return nil, &domain.ValidationError{
				Field: "outcome", Value: outcome,
				Allowed: models.OutcomeVocabulary(b.Kind),
			}
		}
		if b.Outcome == outcome {
			return nil, nil
		}

		now := s.clock.Now()
		change := models.FieldChange{Field: "outcome", Old: b.Outcome, New: outcome}
		b.Outcome = outcome
		b.OutcomeChangedAt = &now
		b.LastUpdatedAt = now
		b.UpdatedBy = actor

		notes := fmt.Sprintf("%s outcome set to: %s", b.Kind, outcome)
		mutated = true
		return []models.AuditEntry{
			s.changeEntry(b.ID, models.ActionOutcomeUpdated, change, actor, now, notes),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if mutated {
		metrics.IncTransition(booking.Kind, models.ActionOutcomeUpdated)
		s.publishEvent(events.EventOutcomeChanged, booking, actor, booking.LastUpdatedAt)
	}
	return booking, nil
}

// ConfirmICU moves an ICU request to confirmed and assigns the bed. Unit and
// room travel with the transition or not at all.
func (s *BookingService) ConfirmICU(ctx context.Context, id, unit, room string, actor models.Actor) (*models.Booking, error) {
	var mutated bool
	booking, err := s.store.MutateBooking(ctx, id, func(b *models.Booking) ([]models.AuditEntry, error) {
		if b.Kind != models.KindICU {
			return nil, &domain.ValidationError{Field: "kind", Value: b.Kind, Message: "only ICU requests can be confirmed"}
		}
		if unit == "" || room == "" {
			return nil, &domain.ValidationError{
				Field:   "unit,room",
				Message: "confirming an ICU request requires both unit and room",
			}
		}
		if !models.CanTransition(b.Kind, b.Status, models.StatusConfirmed) {
			return nil, &domain.ValidationError{
				Field: "status", Value: models.StatusConfirmed,
				Message: fmt.Sprintf("illegal ICU transition from %s to %s", b.Status, models.StatusConfirmed),
			}
		}

		before := *b
		now := s.clock.Now()
		b.Status = models.StatusConfirmed
		b.Unit = unit
		b.Room = room

		changes := models.DiffBookings(&before, b)
		if len(changes) == 0 {
			return nil, nil
		}
		b.LastUpdatedAt = now
		b.UpdatedBy = actor

		notes := fmt.Sprintf("ICU bed confirmed in %s, %s", unit, room)
		entries := make([]models.AuditEntry, 0, len(changes))
		for _, c := range changes {
			entries = append(entries, s.changeEntry(b.ID, models.ActionConfirmed, c, actor, now, notes))
		}
		mutated = true
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	if mutated {
		metrics.IncTransition(booking.Kind, models.ActionConfirmed)
		s.publishEvent(events.EventBookingConfirmed, booking, actor, booking.LastUpdatedAt)
	}
	return booking, nil
}

// RescheduleICU moves the requested date (and optionally bounces the status
// between pending and no_bed_available) while the request is still
// unconfirmed. Status and date change as one unit.
func (s *BookingService) RescheduleICU(ctx context.Context, id, newStatus string, requestedDate time.Time, actor models.Actor) (*models.Booking, error) {
	var mutated bool
	booking, err := s.store.MutateBooking(ctx, id, func(b *models.Booking) ([]models.AuditEntry, error) {
		if b.Kind != models.KindICU {
			return nil, &domain.ValidationError{Field: "kind", Value: b.Kind, Message: "only ICU requests can be rescheduled"}
		}
		if !models.Reschedulable(b.Status) {
			return nil, &domain.ValidationError{
				Field: "status", Value: b.Status,
				Message: fmt.Sprintf("ICU request in status %s can no longer be rescheduled", b.Status),
			}
		}
		if !models.Reschedulable(newStatus) {
			return nil, &domain.ValidationError{
				Field: "status", Value: newStatus,
				Allowed: []string{models.StatusPending, models.StatusNoBedAvailable},
			}
		}

		before := *b
		now := s.clock.Now()
		b.Status = newStatus
		d := requestedDate
		b.RequestedDate = &d

		changes := models.DiffBookings(&before, b)
		if len(changes) == 0 {
			return nil, nil
		}
		b.LastUpdatedAt = now
		b.UpdatedBy = actor

		entries := make([]models.AuditEntry, 0, len(changes))
		for _, c := range changes {
			entries = append(entries, s.changeEntry(b.ID, models.ActionRescheduled, c, actor, now, "ICU request rescheduled"))
		}
		mutated = true
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	if mutated {
		metrics.IncTransition(booking.Kind, models.ActionRescheduled)
		s.publishEvent(events.EventBookingRescheduled, booking, actor, booking.LastUpdatedAt)
	}
	return booking, nil
}

// SoftDelete hides the booking from listings and admission control while
// keeping it readable by id. Repeating the delete is a no-op.
func (s *BookingService) SoftDelete(ctx context.Context, id string, actor models.Actor) (*models.Booking, error) {
	var mutated bool
	booking, err := s.store.MutateBooking(ctx, id, func(b *models.Booking) ([]models.AuditEntry, error) {
		if !b.IsActive {
			return nil, nil
		}

		now := s.clock.Now()
		b.IsActive = false
		b.LastUpdatedAt = now
		b.UpdatedBy = actor

		mutated = true
		return []models.AuditEntry{{
			BookingID:     b.ID,
			Action:        models.ActionSoftDeleted,
			ChangedByName: actor.Name,
			ChangedByRole: actor.Role,
			Timestamp:     now,
			Notes:         "Booking soft deleted",
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	if mutated {
		metrics.IncTransition(booking.Kind, models.ActionSoftDeleted)
		s.publishEvent(events.EventBookingDeleted, booking, actor, booking.LastUpdatedAt)
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	if filter.Kind != "" && !models.ValidKind(filter.Kind) {
		return nil, &domain.ValidationError{
			Field: "kind", Value: filter.Kind,
			Allowed: []string{models.KindOR, models.KindICU},
		}
	}
	return s.store.ListBookings(ctx, filter)
}

// FindActiveConflict is the read-only MRN pre-check. It shares the store's
// conflict predicate with creation, so the two can never disagree.
func (s *BookingService) FindActiveConflict(ctx context.Context, mrn, kind string) (*models.Booking, error) {
	if !models.ValidKind(kind) {
		return nil, &domain.ValidationError{
			Field: "kind", Value: kind,
			Allowed: []string{models.KindOR, models.KindICU},
		}
	}
	return s.store.FindActiveConflict(ctx, mrn, kind)
}

func (s *BookingService) AuditLog(ctx context.Context, bookingID string) ([]models.AuditEntry, error) {
	if _, err := s.store.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, bookingID)
}

func (s *BookingService) Stats(ctx context.Context) (*models.BookingStats, error) {
	return s.store.GetBookingStats(ctx)
}

// MonthlyRegistry returns one kind's bookings created in the given civil
// month, oldest first, for the registry export.
func (s *BookingService) MonthlyRegistry(ctx context.Context, kind string, year int, month time.Month) ([]*models.Booking, error) {
	if !models.ValidKind(kind) {
		return nil, &domain.ValidationError{
			Field: "kind", Value: kind,
			Allowed: []string{models.KindOR, models.KindICU},
		}
	}
	loc := s.clock.Now().Location()
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return s.store.ListBookingsByRange(ctx, kind, from, to)
}

func (s *BookingService) changeEntry(bookingID, action string, change models.FieldChange, actor models.Actor, now time.Time, notes string) models.AuditEntry {
	return models.AuditEntry{
		BookingID:     bookingID,
		Action:        action,
		FieldChanged:  change.Field,
		OldValue:      change.Old,
		NewValue:      change.New,
		ChangedByName: actor.Name,
		ChangedByRole: actor.Role,
		Timestamp:     now,
		Notes:         notes,
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actor models.Actor, at time.Time) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		Kind:          booking.Kind,
		MRN:           booking.MRN,
		Status:        booking.Status,
		Outcome:       booking.Outcome,
		Urgency:       booking.Urgency,
		ChangedBy:     actor.Name,
		ChangedByRole: actor.Role,
		OccurredAt:    at,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func urgencyVocabulary(kind string) []string {
	switch kind {
	case models.KindOR:
		return []string{models.UrgencyE1, models.UrgencyE2, models.UrgencyE3}
	case models.KindICU:
		return []string{models.UrgencyCritical, models.UrgencyElective}
	default:
		return nil
	}
}
