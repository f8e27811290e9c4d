// Package view defines what the client core needs from whatever renders it.
//
// Renderers subscribe to a store.Store for list state and implement the callbacks below
// for form, notification and per-item control feedback. None of these may block.
package view

// FormView is the item submission form
type FormView interface {
	// MarkField flags one form field with a message
	MarkField(field, message string)
	// ClearFields removes every field flag
	ClearFields()
	// ShowMessage shows a form-level message
	ShowMessage(message string)
	// SetBusy disables the form while a submission runs
	SetBusy(busy bool)
	// Close dismisses the form after a successful submission
	Close()
}

// Notifier shows transient notifications
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ItemControls are the per-item action controls of the moderation list
type ItemControls interface {
	SetDisabled(itemID int64, disabled bool)
	ShowError(itemID int64, message string)
}

// Nop implements every view interface and discards all calls
type Nop struct{}

func (Nop) MarkField(string, string) {}
func (Nop) ClearFields()             {}
func (Nop) ShowMessage(string)       {}
func (Nop) SetBusy(bool)             {}
func (Nop) Close()                   {}
func (Nop) Success(string)           {}
func (Nop) Error(string)             {}
func (Nop) SetDisabled(int64, bool)  {}
func (Nop) ShowError(int64, string)  {}

var (
	_ FormView     = Nop{}
	_ Notifier     = Nop{}
	_ ItemControls = Nop{}
)
