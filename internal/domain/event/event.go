// Package event names the change notifications pushed to connected clients.
package event

import "strings"

// Name identifies a change notification.
type Name string

const (
	ActivityUpdated      Name = "xeenaps-activity-updated"
	ActivityDeleted      Name = "xeenaps-activity-deleted"
	TeachingUpdated      Name = "xeenaps-teaching-updated"
	TeachingDeleted      Name = "xeenaps-teaching-deleted"
	BrainstormingUpdated Name = "xeenaps-brainstorming-updated"
	BrainstormingDeleted Name = "xeenaps-brainstorming-deleted"
	TracerUpdated        Name = "xeenaps-tracer-updated"
	TracerDeleted        Name = "xeenaps-tracer-deleted"
	NoteUpdated          Name = "xeenaps-note-updated"
	NoteDeleted          Name = "xeenaps-note-deleted"
	SourceUpdated        Name = "xeenaps-source-updated"
)

// SubjectPrefix is the message-queue subject namespace for events.
const SubjectPrefix = "xeenaps.events."

// Subject returns the message-queue subject for the event.
func (n Name) Subject() string {
	return SubjectPrefix + string(n)
}

// FromSubject recovers the event name from a message-queue subject.
func FromSubject(subject string) (Name, bool) {
	name, ok := strings.CutPrefix(subject, SubjectPrefix)
	if !ok || name == "" {
		return "", false
	}
	return Name(name), true
}

// Deleted is the payload of every *-deleted event.
type Deleted struct {
	ID string `json:"id"`
}
