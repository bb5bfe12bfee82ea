package progresslog

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// TimestampFormat renders as <Year>-<Mon>-<Day>-<HH:MM:SS>, ie. 2023-Sep-08-09:16:35
const TimestampFormat = "2006-Jan-02-15:04:05"

// Logger appends timestamped milestone lines to a file. The file is never
// truncated, so lines accumulate across runs.
type Logger struct {
	path string
	now  func() time.Time
}

func New(path string) Logger {
	return Logger{path: path, now: time.Now}
}

// WithClock returns a copy of the logger that reads the time from now.
func (l Logger) WithClock(now func() time.Time) Logger {
	l.now = now
	return l
}

func FormatLine(t time.Time, message string) string {
	return fmt.Sprintf("%s : %s\n", t.Format(TimestampFormat), message)
}

func (l Logger) Log(message string) error {
	slog.Info(message, "milestone", true)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open progress log: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(FormatLine(l.now(), message))
	if err != nil {
		return fmt.Errorf("write progress log: %w", err)
	}
	return nil
}
