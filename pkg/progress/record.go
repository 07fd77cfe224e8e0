// Package progress tracks which lessons a visitor completed and what they
// did recently. The whole record is persisted as JSON under one key of a
// storage.KV after every mutation.
package progress

import (
	"sort"
	"time"
)

// MaxActivity caps the recent-activity feed.
const MaxActivity = 10

// Action is what an activity entry records.
type Action string

const (
	ActionVisited   Action = "visited"
	ActionStarted   Action = "started"
	ActionCompleted Action = "completed"
)

// ActivityEntry is one event in the recent-activity feed.
type ActivityEntry struct {
	Action    Action `json:"action"`
	SubjectID string `json:"subjectId"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// Time parses the entry timestamp. The zero time is returned for entries
// with an unparseable timestamp.
func (e ActivityEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LessonRef identifies a lesson by museum and lesson id.
type LessonRef struct {
	MuseumID string `json:"museumId"`
	LessonID string `json:"lessonId"`
}

// Record is the persisted progress state.
type Record struct {
	CompletedLessonIDs map[string]struct{}
	// ActivityLog is most recent first, at most MaxActivity long.
	ActivityLog []ActivityEntry
	// InProgress lists external lessons the visitor has opened.
	InProgress []LessonRef
}

// EmptyRecord returns a record with no progress.
func EmptyRecord() Record {
	return Record{
		CompletedLessonIDs: make(map[string]struct{}),
		ActivityLog:        []ActivityEntry{},
		InProgress:         []LessonRef{},
	}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := Record{
		CompletedLessonIDs: make(map[string]struct{}, len(r.CompletedLessonIDs)),
		ActivityLog:        append([]ActivityEntry{}, r.ActivityLog...),
		InProgress:         append([]LessonRef{}, r.InProgress...),
	}
	for id := range r.CompletedLessonIDs {
		out.CompletedLessonIDs[id] = struct{}{}
	}
	return out
}

// CompletedIDs returns the completed lesson ids sorted.
func (r Record) CompletedIDs() []string {
	ids := make([]string, 0, len(r.CompletedLessonIDs))
	for id := range r.CompletedLessonIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// storedRecord is the JSON shape of a Record.
type storedRecord struct {
	CompletedLessonIDs []string        `json:"completedLessonIds"`
	ActivityLog        []ActivityEntry `json:"activityLog"`
	InProgress         []LessonRef     `json:"inProgress,omitempty"`
}

func (r Record) stored() storedRecord {
	return storedRecord{
		CompletedLessonIDs: r.CompletedIDs(),
		ActivityLog:        r.ActivityLog,
		InProgress:         r.InProgress,
	}
}

func (s storedRecord) record() Record {
	r := EmptyRecord()
	for _, id := range s.CompletedLessonIDs {
		r.CompletedLessonIDs[id] = struct{}{}
	}
	for _, e := range s.ActivityLog {
		switch e.Action {
		case ActionVisited, ActionStarted, ActionCompleted:
			r.ActivityLog = append(r.ActivityLog, e)
		}
	}
	if len(r.ActivityLog) > MaxActivity {
		r.ActivityLog = r.ActivityLog[:MaxActivity]
	}
	r.InProgress = append(r.InProgress, s.InProgress...)
	return r
}
