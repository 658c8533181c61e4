package batch

import (
	"regexp"

	"hotsurvey/internal/records"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// Sanitize replaces every character outside [A-Za-z0-9] with "_". Accented
// letters are replaced too; the result is safe on every file system.
func Sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// FileName returns the archive entry name of a participant's questionnaire.
// Two participants with the same name and session collide; the later one
// wins.
func FileName(firstName, lastName, sessionID string) string {
	return "Questionnaire_" + Sanitize(firstName) + "_" + Sanitize(lastName) + "_" + Sanitize(sessionID) + ".docx"
}

// FileNameFor is FileName for a participant record.
func FileNameFor(p records.Participant) string {
	return FileName(p.FirstName, p.LastName, p.SessionID)
}
