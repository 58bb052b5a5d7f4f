package notification

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yllada/quicklinks/common"
)

// Level is the severity of a notification entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// ParseLevel converts a string to a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelWarning:
		return LevelWarning
	case LevelError:
		return LevelError
	case LevelSuccess:
		return LevelSuccess
	default:
		return LevelInfo
	}
}

// UnmarshalJSON decodes a level leniently.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*l = LevelInfo
		return nil
	}
	*l = ParseLevel(s)
	return nil
}

// Timestamp is a point in time stored as RFC 3339. Older files used
// "2006-01-02 15:04:05" and naive ISO 8601; both are still read.
type Timestamp struct {
	time.Time
}

var legacyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses any of the supported layouts. Naive forms are
// read in local time.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{t}, true
		}
	}
	return Timestamp{}, false
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler. An unreadable value decodes
// as the zero time rather than failing the whole log.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Timestamp{}
		return nil
	}
	parsed, ok := ParseTimestamp(s)
	if !ok {
		common.LogDebug("Unreadable notification timestamp %q", s)
	}
	*t = parsed
	return nil
}

// Entry is one user-facing event.
type Entry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
	Level     Level     `json:"level"`
	Read      bool      `json:"read"`
}

// Log is the ordered, persisted history of notifications. Insertion
// order is chronological order. It is safe for concurrent use within a
// process; nothing guards against a second process writing the same file.
type Log struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	now     func() time.Time
}

// NewLog returns an empty log persisted at path. An empty path keeps
// the log in memory only.
func NewLog(path string) *Log {
	return &Log{path: path, entries: []Entry{}, now: time.Now}
}

// Load reads the log stored at path. A missing or corrupt file yields an
// empty log; the problem is logged, never returned.
func Load(path string) *Log {
	l := NewLog(path)
	if path == "" {
		return l
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			common.LogDebug("No notification history at %s", path)
		} else {
			common.LogWarn("Failed to read notifications from %s: %v", path, err)
		}
		return l
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		common.LogWarn("Ignoring corrupt notification file %s: %v", path, err)
		return l
	}

	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New().String()
		}
		if entries[i].Level == "" {
			entries[i].Level = LevelInfo
		}
	}
	if entries != nil {
		l.entries = entries
	}

	common.LogInfo("Loaded %d notifications from %s", len(l.entries), path)
	return l
}

// Path returns the file the log is persisted to.
func (l *Log) Path() string {
	return l.path
}

// Add appends an unread entry stamped with the current time and persists
// the log. Persistence failures are logged; the entry is kept in memory.
func (l *Log) Add(message string, level Level) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:        uuid.New().String(),
		Message:   message,
		Timestamp: Timestamp{l.now()},
		Level:     ParseLevel(string(level)),
		Read:      false,
	}
	l.entries = append(l.entries, entry)
	l.saveLocked()

	common.LogDebug("Added notification: %s", message)
	return entry
}

// MarkRead marks the entry with the given id as read. It returns false
// if no such entry exists. Marking an already read entry is a no-op.
func (l *Log) MarkRead(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID != id {
			continue
		}
		if !l.entries[i].Read {
			l.entries[i].Read = true
			l.saveLocked()
		}
		return true
	}
	return false
}

// MarkAllRead marks every entry as read.
func (l *Log) MarkAllRead() {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for i := range l.entries {
		if !l.entries[i].Read {
			l.entries[i].Read = true
			changed = true
		}
	}
	if changed {
		l.saveLocked()
	}
}

// ClearAll removes every entry and persists the empty log.
func (l *Log) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = []Entry{}
	l.saveLocked()
	common.LogInfo("Notification history cleared")
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of all entries in chronological order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Unread returns the unread entries in chronological order.
func (l *Log) Unread() []Entry {
	return l.filter(func(e Entry) bool { return !e.Read })
}

// UnreadCount returns the number of unread entries.
func (l *Log) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, e := range l.entries {
		if !e.Read {
			count++
		}
	}
	return count
}

// Failed returns the entries logged at error level.
func (l *Log) Failed() []Entry {
	return l.filter(func(e Entry) bool { return e.Level == LevelError })
}

func (l *Log) filter(keep func(Entry) bool) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// saveLocked writes the whole log. Caller must hold l.mu.
func (l *Log) saveLocked() {
	if l.path == "" {
		return
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		common.LogError("Failed to encode notifications: %v", err)
		return
	}

	if err := common.WriteFileAtomic(l.path, data, 0600); err != nil {
		common.LogError("Failed to save notifications to %s: %v", l.path, err)
	}
}
