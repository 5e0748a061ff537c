package components

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// LogBuffer collects encoded log lines until the console takes them.
// It is safe for concurrent use.
type LogBuffer struct {
	mu      sync.Mutex
	entries []Entry
}

var _ zapcore.WriteSyncer = (*LogBuffer)(nil)

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		b.entries = append(b.entries, Entry{Timestamp: now, Kind: EntryLog, Text: line})
	}
	return len(p), nil
}

func (b *LogBuffer) Sync() error {
	return nil
}

// Take returns the buffered entries and empties the buffer
func (b *LogBuffer) Take() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}
