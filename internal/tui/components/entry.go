package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-ice"
	"github.com/allbin/go-ice/internal/tui/styles"
)

// EntryKind classifies a line in the console log
type EntryKind int

const (
	EntryCommand EntryKind = iota
	EntryResponse
	EntryError
	EntryInfo
	EntryLog
)

// Entry is one line of the console log
type Entry struct {
	Timestamp time.Time
	Kind      EntryKind
	Slot      ice.Slave
	Text      string
}

// EntryFromResult turns a command outcome into a log entry
func EntryFromResult(r ice.Result) Entry {
	e := Entry{Timestamp: time.Now(), Kind: EntryResponse, Slot: r.Slave, Text: r.Payload}
	if r.OK() {
		return e
	}

	e.Kind = EntryError
	e.Text = r.Err.Error()
	return e
}

type EntryFormatter struct {
	showTimestamps bool
}

func NewEntryFormatter(showTimestamps bool) *EntryFormatter {
	return &EntryFormatter{showTimestamps: showTimestamps}
}

func (f *EntryFormatter) ShowTimestamps() bool {
	return f.showTimestamps
}

func (f *EntryFormatter) ToggleTimestamps() {
	f.showTimestamps = !f.showTimestamps
}

func (f *EntryFormatter) Format(e Entry) string {
	var indicator string
	switch e.Kind {
	case EntryCommand:
		indicator = styles.CommandStyle.Render("↗ TX ")
	case EntryResponse:
		indicator = styles.ResponseStyle.Render("↙ RX ")
	case EntryError:
		indicator = styles.FaultStyle.Render("✗ ERR")
	case EntryInfo:
		indicator = styles.MutedStyle.Render("• ---")
	default:
		indicator = styles.MutedStyle.Render("· LOG")
	}

	parts := make([]string, 0, 4)
	if f.showTimestamps {
		parts = append(parts, styles.TimestampStyle.Render(fmt.Sprintf("[%s]", e.Timestamp.Format("15:04:05.000"))))
	}
	parts = append(parts, indicator)
	if e.Kind == EntryCommand || e.Kind == EntryResponse || e.Kind == EntryError {
		parts = append(parts, styles.SlotStyle.Render(fmt.Sprintf("[%s]", e.Slot)))
	}

	text := sanitize(e.Text)
	if e.Kind == EntryLog {
		text = styles.MutedStyle.Render(text)
	}
	parts = append(parts, text)
	return strings.Join(parts, " ")
}

func (f *EntryFormatter) FormatAll(entries []Entry) []string {
	formatted := make([]string, len(entries))
	for i, e := range entries {
		formatted[i] = f.Format(e)
	}
	return formatted
}

// sanitize drops trailing line endings and masks control characters
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '.'
		}
		return r
	}, strings.TrimRight(s, "\r\n"))
}
