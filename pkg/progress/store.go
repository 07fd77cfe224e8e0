package progress

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/museumhub/internal/storage"
	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/debug"
	"github.com/vanderheijden86/museumhub/pkg/metrics"
)

// DefaultKey is the storage key the record is kept under.
const DefaultKey = "museumProgress"

// Outcome reports what MarkCompleted did.
type Outcome int

const (
	NewlyCompleted Outcome = iota
	AlreadyCompleted
)

func (o Outcome) String() string {
	if o == AlreadyCompleted {
		return "already completed"
	}
	return "newly completed"
}

// Stats summarizes progress against a catalog.
type Stats struct {
	CompletedCount      int
	MuseumsVisitedCount int
	TotalLessonCount    int
}

// Store is the progress capability set the view controller depends on.
type Store interface {
	Load() Record
	IsCompleted(lessonID string) bool
	RecordActivity(action Action, subjectID, title string) error
	MarkCompleted(lessonID, title string) (Outcome, error)
	MarkInProgress(museumID, lessonID string) error
	Stats(c *catalog.Catalog) Stats
}

// Option configures a KVStore.
type Option func(*KVStore)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(s *KVStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock sets the time source for activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *KVStore) {
		if now != nil {
			s.now = now
		}
	}
}

// KVStore is a Store persisted to a storage.KV. It is not safe for
// concurrent use; the UI drives it from its single update loop.
type KVStore struct {
	kv     storage.KV
	key    string
	now    func() time.Time
	record Record
}

var _ Store = (*KVStore)(nil)

// NewKVStore creates a store and loads the persisted record.
func NewKVStore(kv storage.KV, opts ...Option) *KVStore {
	s := &KVStore{
		kv:     kv,
		key:    DefaultKey,
		now:    time.Now,
		record: EmptyRecord(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load()
	return s
}

// Load re-reads the persisted record. Missing or unparseable data yields
// the empty record; it is never an error.
func (s *KVStore) Load() Record {
	s.record = s.read()
	return s.record.Clone()
}

func (s *KVStore) read() Record {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		debug.Log("progress: reading %q: %v; starting empty", s.key, err)
		return EmptyRecord()
	}
	if !ok || raw == "" {
		return EmptyRecord()
	}
	var stored storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		debug.Log("progress: stored record under %q is corrupt (%v); starting empty", s.key, err)
		return EmptyRecord()
	}
	return stored.record()
}

func (s *KVStore) persist() error {
	defer metrics.Timer(metrics.ProgressPersist)()
	data, err := json.Marshal(s.record.stored())
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		debug.Log("progress: write failed: %v", err)
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// Record returns a copy of the current record.
func (s *KVStore) Record() Record {
	return s.record.Clone()
}

// IsCompleted reports whether lessonID is in the completed set.
func (s *KVStore) IsCompleted(lessonID string) bool {
	_, ok := s.record.CompletedLessonIDs[lessonID]
	return ok
}

// RecordActivity prepends an entry, trims the feed to MaxActivity and
// writes the record through.
func (s *KVStore) RecordActivity(action Action, subjectID, title string) error {
	s.prepend(action, subjectID, title)
	return s.persist()
}

func (s *KVStore) prepend(action Action, subjectID, title string) {
	entry := ActivityEntry{
		Action:    action,
		SubjectID: subjectID,
		Title:     title,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}
	feed := make([]ActivityEntry, 0, MaxActivity+1)
	feed = append(feed, entry)
	feed = append(feed, s.record.ActivityLog...)
	if len(feed) > MaxActivity {
		feed = feed[:MaxActivity]
	}
	s.record.ActivityLog = feed
}

// MarkCompleted adds lessonID to the completed set. Marking an already
// completed lesson changes nothing and does not write.
func (s *KVStore) MarkCompleted(lessonID, title string) (Outcome, error) {
	if s.IsCompleted(lessonID) {
		return AlreadyCompleted, nil
	}
	s.record.CompletedLessonIDs[lessonID] = struct{}{}
	s.prepend(ActionCompleted, lessonID, title)
	return NewlyCompleted, s.persist()
}

// MarkInProgress remembers an opened external lesson. Repeated calls for
// the same lesson are no-ops.
func (s *KVStore) MarkInProgress(museumID, lessonID string) error {
	ref := LessonRef{MuseumID: museumID, LessonID: lessonID}
	for _, r := range s.record.InProgress {
		if r == ref {
			return nil
		}
	}
	s.record.InProgress = append(s.record.InProgress, ref)
	return s.persist()
}

// InProgress returns the opened external lessons in the order they were
// first opened.
func (s *KVStore) InProgress() []LessonRef {
	return append([]LessonRef{}, s.record.InProgress...)
}

// RecentActivity returns up to n most recent entries.
func (s *KVStore) RecentActivity(n int) []ActivityEntry {
	if n < 0 || n > len(s.record.ActivityLog) {
		n = len(s.record.ActivityLog)
	}
	return append([]ActivityEntry{}, s.record.ActivityLog[:n]...)
}

// CompletedInMuseum counts the museum's lessons that are completed.
func (s *KVStore) CompletedInMuseum(m *catalog.Museum) int {
	n := 0
	for _, l := range m.Lessons {
		if s.IsCompleted(l.ID) {
			n++
		}
	}
	return n
}

// Stats summarizes progress. CompletedCount only counts ids of lessons in c,
// each once. MuseumsVisitedCount is the number of distinct museums among
// "visited" entries still in the activity feed.
func (s *KVStore) Stats(c *catalog.Catalog) Stats {
	visited := make(map[string]struct{})
	for _, e := range s.record.ActivityLog {
		if e.Action == ActionVisited {
			visited[e.SubjectID] = struct{}{}
		}
	}
	completed := make(map[string]struct{})
	for _, m := range c.Museums() {
		for _, l := range m.Lessons {
			if s.IsCompleted(l.ID) {
				completed[l.ID] = struct{}{}
			}
		}
	}
	return Stats{
		CompletedCount:      len(completed),
		MuseumsVisitedCount: len(visited),
		TotalLessonCount:    c.TotalLessonCount(),
	}
}

// Reset deletes the stored record and clears the in-memory state.
func (s *KVStore) Reset() error {
	s.record = EmptyRecord()
	if err := s.kv.Remove(s.key); err != nil {
		return fmt.Errorf("resetting progress: %w", err)
	}
	return nil
}
