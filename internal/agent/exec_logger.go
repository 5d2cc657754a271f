package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// maxDetailRunes caps a single details block in the log file.
const maxDetailRunes = 4000

// ExecLogger mirrors execution-history entries to a markdown file for
// debugging. Thread-safe. The log file is truncated on creation.
type ExecLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
	seq  int
}

// NewExecLogger creates a logger that writes to the given path.
// The file is created (or truncated) immediately.
func NewExecLogger(path string) (*ExecLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create exec log: %w", err)
	}
	return &ExecLogger{file: f, path: path}, nil
}

// StartSession writes a session header and resets the step counter.
func (l *ExecLogger) StartSession(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Truncate file for new session
	l.file.Truncate(0)
	l.file.Seek(0, 0)
	l.seq = 0

	l.writef("# Agent Execution Log\n\n")
	l.writef("**Started**: %s  \n", time.Now().Format("2006-01-02 15:04:05"))
	if title != "" {
		l.writef("**Session**: %s\n", title)
	}
	l.writef("\n---\n\n")
}

// LogEntry writes a single execution record as a markdown section.
func (l *ExecLogger) LogEntry(entry HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.writef("## Step %d — %s\n\n", l.seq, entry.Action)
	l.writef("**Time**: %s  \n", entry.Timestamp.Format("15:04:05"))
	l.writef("**Tokens used**: %d  \n", entry.TokenUsed)

	if len(entry.Details) > 0 {
		detail, err := json.MarshalIndent(entry.Details, "", "  ")
		if err != nil {
			l.writef("**Details**: (marshal error: %v)\n", err)
		} else {
			l.writef("\n```json\n%s\n```\n", truncateRunes(string(detail), maxDetailRunes))
		}
	}
	l.writef("\n")
}

// Close flushes and closes the underlying file.
func (l *ExecLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the log file location.
func (l *ExecLogger) Path() string { return l.path }

// writef writes without error handling; a failed debug log line must never
// interrupt agent execution.
func (l *ExecLogger) writef(format string, args ...any) {
	fmt.Fprintf(l.file, format, args...)
}

// truncateRunes caps s at maxRunes Unicode code points, appending "..." when
// truncation occurred.
func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
