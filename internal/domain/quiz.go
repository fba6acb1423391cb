package domain

import "time"

type ClassLevel string

const (
	ClassOLevel ClassLevel = "O-level"
	ClassALevel ClassLevel = "A-level"
	ClassSAT    ClassLevel = "SAT"
	ClassIB     ClassLevel = "IB"
)

func IsValidClassLevel(s string) bool {
	switch ClassLevel(s) {
	case ClassOLevel, ClassALevel, ClassSAT, ClassIB:
		return true
	default:
		return false
	}
}

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Quiz is authored by a teacher. TeacherEmail is taken from the authorized
// account, never from the request body.
type Quiz struct {
	ID              string
	TeacherEmail    string
	Title           string
	Description     string
	ClassLevel      ClassLevel
	StartTime       time.Time
	DurationMinutes int
	Questions       []Question
	CreatedAt       time.Time
}
