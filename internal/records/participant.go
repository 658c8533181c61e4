// Package records reads participant rows from spreadsheets.
//
// The expected header row is the one used by training organizations'
// attendance exports: nom, prénom, email, session, formation and, in newer
// exports, formateur.
package records

import (
	"fmt"
	"strings"
)

// Column names, as written in the header row.
const (
	ColumnLastName  = "nom"
	ColumnFirstName = "prénom"
	ColumnEmail     = "email"
	ColumnSession   = "session"
	ColumnCourse    = "formation"
	ColumnTrainer   = "formateur"
)

// RequiredColumns must all be present or the whole batch is rejected.
var RequiredColumns = []string{
	ColumnLastName, ColumnFirstName, ColumnEmail, ColumnSession, ColumnCourse,
}

// DefaultTrainer fills the trainer field for exports without a formateur column.
const DefaultTrainer = "Jean Dupont"

// Participant is one attendee row.
type Participant struct {
	Row       int // 1-based spreadsheet row, header included
	LastName  string
	FirstName string
	Email     string
	SessionID string
	Course    string
	Trainer   string
}

// DisplayName returns "First Last" for reports.
func (p Participant) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// missingFields lists the column names of empty fields.
func (p Participant) missingFields() []string {
	var out []string
	check := func(col, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, col)
		}
	}
	check(ColumnLastName, p.LastName)
	check(ColumnFirstName, p.FirstName)
	check(ColumnEmail, p.Email)
	check(ColumnSession, p.SessionID)
	check(ColumnCourse, p.Course)
	check(ColumnTrainer, p.Trainer)
	return out
}

// Validate reports an error when any of the six fields is empty.
func (p Participant) Validate() error {
	if missing := p.missingFields(); len(missing) > 0 {
		return fmt.Errorf("empty field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// MissingColumnsError rejects a whole batch before any row is processed.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required column(s): " + strings.Join(e.Missing, ", ")
}

// RowError rejects a single row; the rest of the batch goes on.
type RowError struct {
	Participant Participant
	Err         error
}

func (e *RowError) Error() string {
	name := e.Participant.DisplayName()
	if name == "" {
		name = "unnamed participant"
	}
	return fmt.Sprintf("row %d (%s): %v", e.Participant.Row, name, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
