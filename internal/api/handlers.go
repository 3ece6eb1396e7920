package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wardbook/internal/models"
	"wardbook/internal/service"
)

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBookings(w, r)
	case http.MethodPost:
		s.createBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BookingFilter{
		Kind:       strings.ToUpper(strings.TrimSpace(q.Get("kind"))),
		Status:     strings.TrimSpace(q.Get("status")),
		ActiveOnly: true,
	}
	// Soft-deleted rows stay hidden unless the caller explicitly opts in.
	if v := strings.TrimSpace(q.Get("active_only")); v == "false" || v == "0" {
		filter.ActiveOnly = false
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	bookings, err := s.bookings.ListBookings(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBookingInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id := segments[0]

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.getBooking(w, r, id)
		case http.MethodPatch, http.MethodPut:
			s.updateBookingFields(w, r, id)
		case http.MethodDelete:
			s.deleteBooking(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if len(segments) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch segments[1] {
	case "status":
		s.updateStatus(w, r, id)
	case "outcome":
		s.updateOutcome(w, r, id)
	case "confirm":
		s.confirmBooking(w, r, id)
	case "reschedule":
		s.rescheduleBooking(w, r, id)
	case "audit":
		s.listAudit(w, r, id)
	case "comments":
		s.handleBookingComments(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, id string) {
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) updateBookingFields(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		service.BookingUpdate
		ChangedBy models.Actor `json:"changed_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.UpdateFields(r.Context(), id, body.BookingUpdate, body.ChangedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) deleteBooking(w http.ResponseWriter, r *http.Request, id string) {
	actor := actorFromQuery(r)
	booking, err := s.bookings.SoftDelete(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Status    string       `json:"status"`
		ChangedBy models.Actor `json:"changed_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.UpdateStatus(r.Context(), id, body.Status, body.ChangedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) updateOutcome(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Outcome   string       `json:"outcome"`
		ChangedBy models.Actor `json:"changed_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.UpdateOutcome(r.Context(), id, body.Outcome, body.ChangedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) confirmBooking(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Unit      string       `json:"unit"`
		Room      string       `json:"room"`
		ChangedBy models.Actor `json:"changed_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.ConfirmICU(r.Context(), id, body.Unit, body.Room, body.ChangedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) rescheduleBooking(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Status        string       `json:"status"`
		RequestedDate time.Time    `json:"requested_date"`
		ChangedBy     models.Actor `json:"changed_by"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.RescheduleICU(r.Context(), id, body.Status, body.RequestedDate, body.ChangedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) listAudit(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := s.bookings.AuditLog(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *HTTPServer) handleBookingComments(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		includeInternal := r.URL.Query().Get("include_internal") == "true"
		comments, err := s.comments.ListComments(r.Context(), id, includeInternal)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"comments": comments, "count": len(comments)})
	case http.MethodPost:
		var in service.AddCommentInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in.BookingID = id

		comment, err := s.comments.AddComment(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCommentsChrono is the legacy comment listing: oldest first, filtered
// by booking id and optionally by kind context.
func (s *HTTPServer) handleCommentsChrono(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookingID := strings.TrimSpace(r.URL.Query().Get("booking_id"))
	if bookingID == "" {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}
	commentContext := strings.TrimSpace(r.URL.Query().Get("context"))

	comments, err := s.comments.ListCommentsChrono(r.Context(), bookingID, commentContext)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments, "count": len(comments)})
}

// handleMRNCheck is the advisory pre-check: it reports the blocking booking
// if one exists, but creation re-checks inside its own transaction either way.
func (s *HTTPServer) handleMRNCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	mrn := strings.TrimSpace(r.URL.Query().Get("mrn"))
	kind := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}

	existing, err := s.bookings.FindActiveConflict(r.Context(), mrn, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if existing == nil {
		writeJSON(w, http.StatusOK, map[string]any{"has_active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"has_active": true, "existing": existing})
}

func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.sessions.ActiveSessions(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
	case http.MethodPost:
		var body struct {
			UserName string `json:"user_name"`
			UserRole string `json:"user_role"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		session, created, err := s.sessions.Track(r.Context(), body.UserName, body.UserRole)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, session)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handlePresence(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/presence/"
	userName := strings.TrimPrefix(r.URL.Path, prefix)
	userName = strings.TrimSpace(strings.Trim(userName, "/"))
	if userName == "" {
		writeError(w, http.StatusBadRequest, "user name is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		presence, err := s.sessions.Presence(r.Context(), userName)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if presence == nil {
			writeJSON(w, http.StatusOK, map[string]any{"online": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"online": true, "presence": presence})
	case http.MethodDelete:
		if err := s.sessions.ClearPresence(r.Context(), userName); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.bookings.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleStaffPasswordVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.creds.Verify(r.Context(), body.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *HTTPServer) handleStaffPasswordUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.creds.UpdatePassword(r.Context(), body.CurrentPassword, body.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleRegistryExport streams one kind's monthly registry as CSV (default)
// or as an Excel workbook when format=xlsx.
func (s *HTTPServer) handleRegistryExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	kind := strings.ToUpper(strings.TrimSpace(q.Get("kind")))
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	monthNum, err := strconv.Atoi(q.Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	month := time.Month(monthNum)

	bookings, err := s.bookings.MonthlyRegistry(r.Context(), kind, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	fileBase := strings.ToLower(kind) + "_registry_" + strconv.Itoa(year) + "_" + strconv.Itoa(monthNum)
	switch q.Get("format") {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=\""+fileBase+".csv\"")
		if err := s.exports.WriteCSV(w, bookings); err != nil {
			s.logger.Error().Err(err).Msg("csv export failed")
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename=\""+fileBase+".xlsx\"")
		if err := s.exports.WriteXLSX(w, kind, year, month, bookings); err != nil {
			s.logger.Error().Err(err).Msg("xlsx export failed")
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid format; expected csv or xlsx")
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

func actorFromQuery(r *http.Request) models.Actor {
	q := r.URL.Query()
	return models.Actor{
		UID:  strings.TrimSpace(q.Get("changed_by_uid")),
		Name: strings.TrimSpace(q.Get("changed_by")),
		Role: strings.TrimSpace(q.Get("changed_by_role")),
	}
}
