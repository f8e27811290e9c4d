package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/osse101/opitemdb/internal/config"
	"github.com/osse101/opitemdb/internal/event"
)

// eventSettings are the effective retry settings of the item event publisher
type eventSettings struct {
	maxRetries     int
	retryDelay     time.Duration
	deadLetterPath string
}

func resolveEventSettings(cfg *config.Config) eventSettings {
	s := eventSettings{
		maxRetries:     cfg.EventMaxRetries,
		retryDelay:     cfg.EventRetryDelay,
		deadLetterPath: cfg.EventDeadLetterPath,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = EventDefaultMaxRetries
	}
	if s.retryDelay <= 0 {
		s.retryDelay = EventDefaultRetryDelay
	}
	if s.deadLetterPath == "" {
		s.deadLetterPath = EventDefaultDeadLetterPath
	}
	return s
}

// InitializeEventSystem creates the in-process item event bus and the resilient
// publisher the catalog publishes through. Item events left in the dead-letter
// file by earlier runs are reported so lost moderation notifications get noticed.
func InitializeEventSystem(cfg *config.Config) (event.Bus, *event.ResilientPublisher, error) {
	s := resolveEventSettings(cfg)

	if err := os.MkdirAll(filepath.Dir(s.deadLetterPath), DirPermission); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", LogMsgFailedCreateDeadLetterDir, err)
	}
	reportDeadLetters(s.deadLetterPath)

	bus := event.NewMemoryBus()
	publisher, err := event.NewResilientPublisher(bus, s.maxRetries, s.retryDelay, s.deadLetterPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", LogMsgFailedCreateResilientPublisher, err)
	}

	slog.Info(LogMsgEventSystemInitialized,
		"max_retries", s.maxRetries,
		"retry_delay", s.retryDelay,
		"deadletter_path", s.deadLetterPath)
	return bus, publisher, nil
}

func reportDeadLetters(path string) {
	entries, err := event.ReadDeadLetters(path)
	if err != nil {
		slog.Warn(LogMsgDeadLettersUnreadable, "path", path, "error", err)
	}
	if len(entries) == 0 {
		return
	}
	itemIDs := make([]int64, 0, len(entries))
	for _, e := range entries {
		if e.ItemID != 0 {
			itemIDs = append(itemIDs, e.ItemID)
		}
	}
	slog.Warn(LogMsgDeadLettersPending, "path", path, "count", len(entries), "item_ids", itemIDs)
}
