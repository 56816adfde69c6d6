// Package selection tracks the transient text selection and the active
// annotation.  Selections are derived from input-device state, never
// persisted, and an empty range is represented as absence rather than a
// zero-length range.
package selection

// State is the selection lifecycle state.
//
//	Idle ──► Selecting ──► Selected ──► Idle
//
// Pointer-down inside text enters Selecting; a non-empty commit enters
// Selected; clicks elsewhere, text edits, and explicit clears return to Idle.
type State int

const (
	Idle State = iota
	Selecting
	Selected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// Range is a committed selection over the buffer, start <= end, never empty.
type Range struct {
	Start int
	End   int
	Text  string
}

// Controller is the selection/interaction state machine.  It is owned by a
// single document session and accessed under that session's lock; it performs
// no locking of its own.
type Controller struct {
	state  State
	anchor int
	head   int

	committed Range

	activeID string
}

// New returns a Controller in the Idle state.
func New() *Controller {
	return &Controller{state: Idle}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Begin enters Selecting with the anchor at offset.  Any previously
// committed selection is discarded.
func (c *Controller) Begin(offset int) {
	c.state = Selecting
	c.anchor = offset
	c.head = offset
	c.committed = Range{}
}

// Extend moves the selection head while Selecting.  Ignored in other states.
func (c *Controller) Extend(offset int) {
	if c.state != Selecting {
		return
	}
	c.head = offset
}

// Commit finishes the gesture against buffer.  A non-empty normalized range
// enters Selected and is returned; an empty range returns to Idle and
// reports no selection.  Offsets beyond the buffer are clamped.
func (c *Controller) Commit(buffer string) (Range, bool) {
	if c.state != Selecting {
		return Range{}, false
	}

	start, end := c.anchor, c.head
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end > len(buffer) {
		end = len(buffer)
	}

	if start >= end {
		c.state = Idle
		c.committed = Range{}
		return Range{}, false
	}

	c.state = Selected
	c.committed = Range{Start: start, End: end, Text: buffer[start:end]}
	return c.committed, true
}

// Selection returns the committed range while in Selected.
func (c *Controller) Selection() (Range, bool) {
	if c.state != Selected {
		return Range{}, false
	}
	return c.committed, true
}

// Consume takes the committed range for an annotation action and returns the
// controller to Idle.  Manual highlight/comment/tag creation goes through
// here so a selection is used at most once.
func (c *Controller) Consume() (Range, bool) {
	r, ok := c.Selection()
	if !ok {
		return Range{}, false
	}
	c.state = Idle
	c.committed = Range{}
	return r, true
}

// Clear abandons any selection in progress or committed.
func (c *Controller) Clear() {
	c.state = Idle
	c.committed = Range{}
}

// SetActive marks the annotation with id as active.  Only one annotation may
// be active; a new id implicitly replaces the previous one.  Activation is
// independent of selection state.
func (c *Controller) SetActive(id string) {
	c.activeID = id
}

// Active returns the active annotation id, if any.
func (c *Controller) Active() (string, bool) {
	if c.activeID == "" {
		return "", false
	}
	return c.activeID, true
}

// ClearActive drops the active annotation reference.
func (c *Controller) ClearActive() {
	c.activeID = ""
}

// ClearActiveIf drops the active reference only when it points at id.
// Used when a single annotation is deleted.
func (c *Controller) ClearActiveIf(id string) {
	if c.activeID == id {
		c.activeID = ""
	}
}

// ResetForEdit enforces the edit invariant: any text mutation drops both the
// selection and the active annotation, even with a generation pass in
// flight.  No stale reference may survive an edit.
func (c *Controller) ResetForEdit() {
	c.Clear()
	c.ClearActive()
}
