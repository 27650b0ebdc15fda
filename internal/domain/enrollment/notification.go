// internal/domain/enrollment/notification.go
package enrollment

// Notification aggregates everything fetched for one class before dispatch.
type Notification struct {
	ClassID          string
	InstructorName   string
	InstructorEmail  string
	CoordinatorEmail string // empty when it could not be resolved
	Detail           ClassDetail
	Students         []StudentContact
}
