/*
Package activity records who did what to the roster.
*/
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by a Store when no entry has the requested id.
var ErrNotFound = errors.New("activity: not found")

// ActionType classifies an activity entry.
type ActionType string

const (
	ActionCreate   ActionType = "CREATE"
	ActionUpdate   ActionType = "UPDATE"
	ActionDelete   ActionType = "DELETE"
	ActionLogin    ActionType = "LOGIN"
	ActionLogout   ActionType = "LOGOUT"
	ActionUpload   ActionType = "UPLOAD"
	ActionDownload ActionType = "DOWNLOAD"
	ActionOther    ActionType = "OTHER"
)

var actionTypes = map[ActionType]struct{}{
	ActionCreate: {}, ActionUpdate: {}, ActionDelete: {}, ActionLogin: {},
	ActionLogout: {}, ActionUpload: {}, ActionDownload: {}, ActionOther: {},
}

// ParseActionType accepts the exact upper-case action names.
func ParseActionType(s string) (ActionType, bool) {
	a := ActionType(s)
	_, ok := actionTypes[a]
	return a, ok
}

// DeletedStudentLabel is shown when an entry's student no longer exists and no name was recorded.
const DeletedStudentLabel = "(Deleted Student)"

// Entry is one stored activity record.
type Entry struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	ActionType  ActionType `json:"actionType"`
	StudentID   *int64     `json:"studentId"`
	StudentName *string    `json:"studentName"`
	IPAddress   string     `json:"ipAddress,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Actor is the user summary attached to listed entries.
type Actor struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// View is an entry joined with its user and student.
type View struct {
	Entry
	User *Actor `json:"user"`

	// StudentExists is false when the referenced student was deleted or never set.
	StudentExists bool `json:"-"`

	// EntityFallback names the student when the row no longer exists.
	EntityFallback *string `json:"entityFallback"`
}

// Finalize fills EntityFallback for entries whose student is gone.
func (v *View) Finalize() {
	if v.StudentExists {
		v.EntityFallback = nil
		return
	}

	label := DeletedStudentLabel
	if v.StudentName != nil && strings.TrimSpace(*v.StudentName) != "" {
		label = *v.StudentName
	}
	v.EntityFallback = &label
}

// Record is the input of a new entry.
type Record struct {
	UserID      string
	ActionType  ActionType
	StudentID   *int64
	StudentName *string
	IPAddress   string
}

// Filter narrows a listing.
type Filter struct {
	UserID     string
	ActionType ActionType
}

// Store persists activity entries. ListEntries returns newest first.
type Store interface {
	AddEntry(ctx context.Context, rec Record) (*Entry, error)
	ListEntries(ctx context.Context, f Filter) ([]View, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteAllEntries(ctx context.Context) (int64, error)
}
