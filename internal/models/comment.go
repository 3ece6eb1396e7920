package models

import "time"

// Comment is a free-text note on a booking. Comments are created once and
// never edited or deleted. Context carries the parent booking kind in lower
// case, denormalized at write time.
type Comment struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	AuthorUID  string    `json:"author_uid,omitempty"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}
