// Package viewtest provides a recording implementation of the view interfaces for tests.
package viewtest

import (
	"sync"

	"github.com/osse101/opitemdb/internal/view"
)

// Recorder records every view call
type Recorder struct {
	mu        sync.Mutex
	Fields    map[string]string
	Messages  []string
	Busy      []bool
	Closed    int
	Successes []string
	Errors    []string
	Disabled  map[int64]bool
	// DisableCalls holds every SetDisabled call in order
	DisableCalls []DisableCall
	ItemErrors   map[int64]string
}

// DisableCall is one SetDisabled invocation
type DisableCall struct {
	ItemID   int64
	Disabled bool
}

var (
	_ view.FormView     = (*Recorder)(nil)
	_ view.Notifier     = (*Recorder)(nil)
	_ view.ItemControls = (*Recorder)(nil)
)

// New creates an empty recorder
func New() *Recorder {
	return &Recorder{
		Fields:     map[string]string{},
		Disabled:   map[int64]bool{},
		ItemErrors: map[int64]string{},
	}
}

func (r *Recorder) MarkField(field, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fields[field] = message
}

func (r *Recorder) ClearFields() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fields = map[string]string{}
}

func (r *Recorder) ShowMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, message)
}

func (r *Recorder) SetBusy(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Busy = append(r.Busy, busy)
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed++
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}

func (r *Recorder) SetDisabled(itemID int64, disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Disabled[itemID] = disabled
	r.DisableCalls = append(r.DisableCalls, DisableCall{ItemID: itemID, Disabled: disabled})
}

func (r *Recorder) ShowError(itemID int64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ItemErrors[itemID] = message
}
