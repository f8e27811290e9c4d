// Package terminal renders the client state to a text terminal.
package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/store"
	"github.com/osse101/opitemdb/internal/versiondiff"
	"github.com/osse101/opitemdb/internal/view"
)

const (
	timeLayout   = "2006-01-02 15:04"
	starFilled   = "★"
	starEmpty    = "☆"
	labelPending = "pending"
	labelPublic  = "published"
)

// Renderer writes view callbacks and store snapshots to out. It is safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	fields map[string]string

	ok   *color.Color
	bad  *color.Color
	warn *color.Color
	dim  *color.Color
}

var (
	_ view.FormView     = (*Renderer)(nil)
	_ view.Notifier     = (*Renderer)(nil)
	_ view.ItemControls = (*Renderer)(nil)
)

// Option configures a Renderer
type Option func(*Renderer)

// WithColor forces colored output on or off
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		for _, c := range []*color.Color{r.ok, r.bad, r.warn, r.dim} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// New creates a renderer writing to out
func New(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		out:    out,
		fields: map[string]string{},
		ok:     color.New(color.FgGreen),
		bad:    color.New(color.FgRed),
		warn:   color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) MarkField(field, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[field] = message
	r.warn.Fprintf(r.out, "  %s: %s\n", field, message)
}

func (r *Renderer) ClearFields() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = map[string]string{}
}

// Fields returns the currently flagged form fields
func (r *Renderer) Fields() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

func (r *Renderer) ShowMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, message)
}

func (r *Renderer) SetBusy(busy bool) {
	if !busy {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dim.Fprintln(r.out, "Submitting...")
}

// Progress writes one step of a longer operation
func (r *Renderer) Progress(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dim.Fprintf(r.out, "  %s\n", step)
}

func (r *Renderer) Close() {}

func (r *Renderer) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ok.Fprintln(r.out, "✔ "+message)
}

func (r *Renderer) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bad.Fprintln(r.out, "✖ "+message)
}

func (r *Renderer) SetDisabled(itemID int64, disabled bool) {
	if !disabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dim.Fprintf(r.out, "item #%d: working...\n", itemID)
}

func (r *Renderer) ShowError(itemID int64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bad.Fprintf(r.out, "item #%d: %s\n", itemID, message)
}

// Bind renders every store snapshot that is not idle. The returned func unbinds.
func (r *Renderer) Bind(s *store.Store) func() {
	return s.Subscribe(func(st store.State) {
		if st.Status != store.StatusIdle {
			r.RenderState(st)
		}
	})
}

// RenderState writes one list snapshot
func (r *Renderer) RenderState(st store.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch st.Status {
	case store.StatusLoading:
		r.dim.Fprintf(r.out, "Loading %d items...\n", st.SkeletonCount)
	case store.StatusError:
		r.bad.Fprintln(r.out, st.StatusMessage)
	case store.StatusEmpty:
		fmt.Fprintln(r.out, "No items found.")
	case store.StatusReady:
		r.itemTable(st.Items)
		r.dim.Fprintln(r.out, pageLine(st))
	}
}

func (r *Renderer) itemTable(items []domain.ItemSummary) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Title", "Type", "Material", "Rarity", "Stars", "Status", "Created"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, it := range items {
		status := labelPending
		if it.IsPublished {
			status = labelPublic
		}
		table.Append([]string{
			strconv.FormatInt(it.ID, 10),
			it.Title,
			label(it.TypeLabel, it.Type),
			label(it.MaterialLabel, it.Material),
			label(it.RarityLabel, it.Rarity),
			stars(it.StarLevel),
			status,
			it.CreatedAt.Local().Format(timeLayout),
		})
	}
	table.Render()
}

func pageLine(st store.State) string {
	if st.PageSize == store.Unbounded {
		return fmt.Sprintf("%d items", st.Total)
	}
	pages := (st.Total + st.PageSize - 1) / st.PageSize
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("Page %d of %d (%d items)", st.Page, pages, st.Total)
}

func label(resolved, slug string) string {
	if resolved != "" {
		return resolved
	}
	return domain.LabelFromSlug(slug)
}

func stars(level int) string {
	level = min(max(level, domain.MinStarLevel), domain.MaxStarLevel)
	return strings.Repeat(starFilled, level) + strings.Repeat(starEmpty, domain.MaxStarLevel-level)
}

// RenderDiff writes a version diff
func (r *Renderer) RenderDiff(res versiondiff.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !res.HasPrevious() {
		r.dim.Fprintln(r.out, res.Message)
		return
	}
	if len(res.Entries) == 0 {
		fmt.Fprintln(r.out, "No changes.")
		return
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Field", "Before", "After"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, e := range res.Entries {
		table.Append([]string{e.Field, e.Before, e.After})
	}
	table.Render()
}

// RenderLookups writes one metadata list
func (r *Renderer) RenderLookups(entries []domain.Lookup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Slug", "Label"})
	table.SetBorder(false)
	for _, e := range entries {
		table.Append([]string{strconv.FormatInt(e.ID, 10), e.Slug, e.DisplayLabel()})
	}
	table.Render()
}

// RenderEnchantments writes the enchantment definitions
func (r *Renderer) RenderEnchantments(defs []domain.Enchantment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Slug", "Label", "Max level"})
	table.SetBorder(false)
	for _, d := range defs {
		table.Append([]string{strconv.FormatInt(d.ID, 10), d.Slug, d.Label, strconv.Itoa(d.MaxLevel)})
	}
	table.Render()
}
