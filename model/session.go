package model

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionWon        SessionStatus = "won"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether no further transition is allowed from s.
func (s SessionStatus) Terminal() bool {
	return s == SessionWon || s == SessionAbandoned
}

func (s SessionStatus) Valid() bool {
	return s == SessionInProgress || s.Terminal()
}

// Identity keys one attempt: the display handle plus the contact address.
// A player may hold many identities over time, one per attempt.
type Identity struct {
	Handle  string `json:"handle"`
	Contact string `json:"contact"`
}

// SessionRecord is one game attempt. Only Status and ElapsedSeconds ever change,
// and only once, on the terminal transition.
type SessionRecord struct {
	ID             uint          `json:"-" gorm:"primaryKey;autoIncrement"`
	StartedAt      time.Time     `json:"started_at" gorm:"not null;index"`
	Handle         string        `json:"handle" gorm:"not null;index;size:255"`
	Contact        string        `json:"contact" gorm:"not null;size:255"`
	Secret         string        `json:"secret" gorm:"not null;size:255"`
	Status         SessionStatus `json:"status" gorm:"not null;index;size:20"`
	ElapsedSeconds int           `json:"elapsed_seconds" gorm:"not null;default:0"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}

func (r SessionRecord) Identity() Identity {
	return Identity{Handle: r.Handle, Contact: r.Contact}
}
