// internal/domain/enrollment/class.go
package enrollment

import "strings"

// ClassSummary is one listing row with at least one occupied seat.
type ClassSummary struct {
	ClassID        string
	InstructorID   string
	InstructorName string
	OccupiedSeats  int
}

// ClassPage is one page of the class listing.
type ClassPage struct {
	Number  int
	IsLast  bool
	Classes []ClassSummary
}

// ClassDetail is the flattened schedule/address view of a class.
type ClassDetail struct {
	Date     string // already localized to the portal time zone
	Location string
}

// Valid reports whether both fields are present. Invalid details are never notified.
func (d ClassDetail) Valid() bool {
	return strings.TrimSpace(d.Date) != "" && strings.TrimSpace(d.Location) != ""
}

// StudentContact is one enrolled, in-progress roster entry.
type StudentContact struct {
	Name  string
	Email string
	Phone string
}

// Valid reports whether the entry has both a name and an email.
func (s StudentContact) Valid() bool {
	return strings.TrimSpace(s.Name) != "" && strings.TrimSpace(s.Email) != ""
}

// ValidStudents drops roster entries without a name or email.
func ValidStudents(roster []StudentContact) []StudentContact {
	out := make([]StudentContact, 0, len(roster))
	for _, s := range roster {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// Instructor is the result of an instructor alignment lookup.
type Instructor struct {
	Email   string
	OrgType string
	OrgCode string
}
