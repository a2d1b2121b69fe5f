package brewsvc

// Mode selects what the render surface shows
type Mode int

const (
	// ModeNormal renders the service list, or a placeholder if it is empty
	ModeNormal Mode = iota
	// ModeNotFound renders a single disabled "Homebrew not found" row
	ModeNotFound
	// ModeError renders a single disabled "Homebrew error" row
	ModeError
	// ModeLoading renders a single spinner row while no snapshot exists
	ModeLoading
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeNotFound:
		return "notFound"
	case ModeError:
		return "error"
	case ModeLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// RowKind identifies the role of a rendered row
type RowKind int

const (
	// RowService toggles one service
	RowService RowKind = iota
	// RowRestart is the hidden alternate of RowService that restarts it
	RowRestart
	// RowBulkSeparator separates the service list from bulk actions
	RowBulkSeparator
	// RowStartAll starts every service
	RowStartAll
	// RowStopAll stops every service
	RowStopAll
	// RowRestartAll restarts every service
	RowRestartAll
	// RowQuitSeparator separates the quit row
	RowQuitSeparator
	// RowQuit exits the program
	RowQuit
	// RowNoServices is shown when brew reports no services
	RowNoServices
	// RowNotFound explains that brew could not be located
	RowNotFound
	// RowError explains that the last poll failed
	RowError
	// RowLoading is the spinner shown before the first snapshot
	RowLoading
)

// Fixed row counts around the per-service rows
const (
	// ListFixedRows follow a non-empty service list: separator, three bulk
	// actions, separator, quit
	ListFixedRows = 6
	// MessageFixedRows is a single message row plus separator and quit
	MessageFixedRows = 3
	// RowsPerService is the visible row plus its restart alternate
	RowsPerService = 2
)

// ExpectedRowCount returns the row count of a normal-mode list of n services
func ExpectedRowCount(n int) int {
	if n == 0 {
		return MessageFixedRows
	}
	return RowsPerService*n + ListFixedRows
}

// RowKey is the stable identity of a rendered row. In-place updates find
// rows by key, never by position.
type RowKey struct {
	Kind    RowKind
	Service string
}

// Row is one entry of the rendered list
type Row struct {
	Key     RowKey
	Title   string
	Color   Color
	Enabled bool
	Loading bool
	// Alternate rows are hidden until the surface's modifier is held
	Alternate bool
	// Shortcut is a single key hint for the row, empty if none
	Shortcut string
}

// sameVisual reports whether two rows with the same key render identically
func (r Row) sameVisual(o Row) bool {
	return r.Color == o.Color && r.Enabled == o.Enabled && r.Loading == o.Loading
}

// Surface is the render target driven by the engine.
//
// All methods are called from the engine loop goroutine and must not block
// on the loop (for example by calling back into Engine synchronously).
type Surface interface {
	// RenderedKeys returns the keys of the rows currently displayed, in order
	RenderedKeys() []RowKey
	// Rebuild discards every row and displays rows
	Rebuild(rows []Row)
	// Update changes the color, enabled and loading fields of the row with
	// the same key, leaving its position and interaction state alone
	Update(row Row)
}

// View is the read model handed to render surfaces
type View struct {
	Mode Mode
	// Loading is true while a poll runs with the surface open
	Loading bool
	// Polling is true while a poll runs, whether or not the surface is open
	Polling  bool
	Services Snapshot
	// Pending lists control targets still awaiting their follow-up poll
	Pending []string
}

// renderInput is everything row derivation depends on
type renderInput struct {
	mode        Mode
	services    Snapshot
	polling     bool
	pending     map[string]Operation
	currentUser string
}

// BuildRows derives the full row list for a view
func BuildRows(v View, currentUser string) []Row {
	pending := make(map[string]Operation, len(v.Pending))
	for _, t := range v.Pending {
		pending[t] = OpUnknown
	}
	return buildRows(renderInput{
		mode:        v.Mode,
		services:    v.Services,
		polling:     v.Loading,
		pending:     pending,
		currentUser: currentUser,
	})
}

func buildRows(in renderInput) []Row {
	switch in.mode {
	case ModeNotFound:
		return messageRows(RowNotFound, "Homebrew not found")
	case ModeError:
		return messageRows(RowError, "Homebrew error")
	case ModeLoading:
		rows := messageRows(RowLoading, "Loading services")
		rows[0].Loading = true
		return rows
	}

	if len(in.services) == 0 {
		return messageRows(RowNoServices, "No services available")
	}

	_, allPending := in.pending[AllServices]
	rows := make([]Row, 0, ExpectedRowCount(len(in.services)))
	for _, svc := range in.services {
		_, pending := in.pending[svc.Name]
		loading := in.polling || pending || allPending
		enabled := svc.EnabledFor(in.currentUser)
		color := svc.Color()

		rows = append(rows,
			Row{
				Key:     RowKey{Kind: RowService, Service: svc.Name},
				Title:   svc.Name,
				Color:   color,
				Enabled: enabled,
				Loading: loading,
			},
			Row{
				Key:       RowKey{Kind: RowRestart, Service: svc.Name},
				Title:     "Restart " + svc.Name,
				Color:     color,
				Enabled:   enabled,
				Loading:   loading,
				Alternate: true,
			},
		)
	}

	rows = append(rows,
		Row{Key: RowKey{Kind: RowBulkSeparator}},
		Row{Key: RowKey{Kind: RowStartAll}, Title: "Start all", Enabled: true, Shortcut: "s"},
		Row{Key: RowKey{Kind: RowStopAll}, Title: "Stop all", Enabled: true, Shortcut: "x"},
		Row{Key: RowKey{Kind: RowRestartAll}, Title: "Restart all", Enabled: true, Shortcut: "r"},
	)
	return append(rows, quitRows()...)
}

func messageRows(kind RowKind, title string) []Row {
	rows := []Row{{Key: RowKey{Kind: kind}, Title: title}}
	return append(rows, quitRows()...)
}

func quitRows() []Row {
	return []Row{
		{Key: RowKey{Kind: RowQuitSeparator}},
		{Key: RowKey{Kind: RowQuit}, Title: "Quit", Enabled: true, Shortcut: "q"},
	}
}

// SyncAction is the outcome of a presentation sync
type SyncAction int

const (
	// SyncRebuild replaced every row
	SyncRebuild SyncAction = iota
	// SyncInPlace updated existing rows by key
	SyncInPlace
)

// String returns the action name
func (a SyncAction) String() string {
	if a == SyncInPlace {
		return "in-place"
	}
	return "rebuild"
}

// decideSync picks between a rebuild and an in-place update.
//
// A closed surface is always rebuilt. An open surface is updated in place
// only when the rendered keys match the desired rows one for one, which
// implies the row count equals ExpectedRowCount for the snapshot. Rows
// sharing a key cannot be addressed by key, so they force a rebuild.
func decideSync(rendered []RowKey, rows []Row, surfaceOpen bool) SyncAction {
	if !surfaceOpen {
		return SyncRebuild
	}
	if len(rendered) != len(rows) {
		return SyncRebuild
	}
	seen := make(map[RowKey]struct{}, len(rows))
	for i, row := range rows {
		if rendered[i] != row.Key {
			return SyncRebuild
		}
		if _, dup := seen[row.Key]; dup {
			return SyncRebuild
		}
		seen[row.Key] = struct{}{}
	}
	return SyncInPlace
}

// Presenter pushes derived rows to a Surface with the fewest changes the
// surface state allows
type Presenter struct {
	surface Surface
	last    map[RowKey]Row
}

// NewPresenter creates a Presenter for s
func NewPresenter(s Surface) *Presenter {
	return &Presenter{surface: s, last: map[RowKey]Row{}}
}

// Sync renders rows, rebuilding or updating in place per decideSync.
// In-place updates skip rows whose visual fields did not change.
func (p *Presenter) Sync(rows []Row, surfaceOpen bool) SyncAction {
	action := decideSync(p.surface.RenderedKeys(), rows, surfaceOpen)

	next := make(map[RowKey]Row, len(rows))
	for _, row := range rows {
		next[row.Key] = row
	}

	if action == SyncRebuild {
		p.surface.Rebuild(rows)
		p.last = next
		return action
	}

	for _, row := range rows {
		if prev, ok := p.last[row.Key]; ok && prev.sameVisual(row) {
			continue
		}
		p.surface.Update(row)
	}
	p.last = next
	return action
}
