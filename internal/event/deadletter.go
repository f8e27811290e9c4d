package event

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
)

// DeadLetterSchemaVersion is the current version of the dead-letter log format
const DeadLetterSchemaVersion = "1.1"

// DeadLetterEntry is one item event that failed every publish attempt
type DeadLetterEntry struct {
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	// ItemID is lifted out of the payload so lost notifications can be found by item
	ItemID    int64  `json:"item_id,omitempty"`
	Event     Event  `json:"event"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

// DeadLetterWriter appends dead-lettered events to a JSON-lines file
type DeadLetterWriter struct {
	mu   sync.Mutex
	file *os.File
	log  *slog.Logger
	now  func() time.Time
}

// NewDeadLetterWriter opens (or creates) the dead-letter file at path
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open dead-letter file: %w", err)
	}
	return &DeadLetterWriter{
		file: f,
		log:  logger.Component("deadletter"),
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Write appends one failed event
func (w *DeadLetterWriter) Write(ev Event, attempts int, lastError error) error {
	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Timestamp:     w.now(),
		Event:         ev,
		Attempts:      attempts,
	}
	if payload, err := DecodePayload[domain.ItemEventPayload](ev.Payload); err == nil {
		entry.ItemID = payload.ItemID
	}
	if lastError != nil {
		entry.LastError = lastError.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.log.Warn("Event dead-lettered", "event_type", ev.Type, "item_id", entry.ItemID,
		"attempts", attempts, "error", entry.LastError)
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write dead letter: %w", err)
	}
	return nil
}

// Close closes the dead-letter file
func (w *DeadLetterWriter) Close() error {
	return w.file.Close()
}

// ReadDeadLetters returns every entry of the dead-letter file at path.
// A missing file has no entries.
func ReadDeadLetters(path string) ([]DeadLetterEntry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dead-letter file: %w", err)
	}
	defer f.Close()

	var entries []DeadLetterEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e DeadLetterEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return entries, fmt.Errorf("dead-letter line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
