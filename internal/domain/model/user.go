package model

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller. Every core operation receives it
// explicitly.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Profile is the read projection of an identity-provider user.
type Profile struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	RollNo     string    `json:"roll_no"`
	Department string    `json:"department"`
	Year       string    `json:"year"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stream returns the stream the profile's department belongs to.
func (p Profile) Stream() string {
	return StreamFromDepartment(p.Department)
}

const (
	Stream1   = "1"
	Stream2   = "2"
	Stream3   = "3"
	StreamAll = "all"
)

var departmentStreams = map[string]string{
	"CSE":    Stream1,
	"IT":     Stream1,
	"MTECH":  Stream1,
	"M.TECH": Stream1,
	"AIDS":   Stream1,
	"AI&DS":  Stream1,
	"ECE":    Stream2,
	"EEE":    Stream2,
	"EIE":    Stream2,
	"R&A":    Stream2,
	"AERO":   Stream3,
	"BME":    Stream3,
	"CIVIL":  Stream3,
	"MECH":   Stream3,
}

// StreamFromDepartment maps a department to its stream. Unknown and empty
// departments fall into stream 3.
func StreamFromDepartment(department string) string {
	if s, ok := departmentStreams[strings.ToUpper(strings.TrimSpace(department))]; ok {
		return s
	}
	return Stream3
}

func ValidStream(s string) bool {
	switch s {
	case Stream1, Stream2, Stream3, StreamAll:
		return true
	}
	return false
}
