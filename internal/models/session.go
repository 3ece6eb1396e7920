package models

import "time"

// UserSession is a lightweight presence record. At most one active session
// exists per user name; a repeat login refreshes LastLogin in place.
type UserSession struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"user_name"`
	UserRole  string    `json:"user_role"`
	LastLogin time.Time `json:"last_login"`
	IsActive  bool      `json:"is_active"`
}
