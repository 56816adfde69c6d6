package selection

import "testing"

const buffer = "The quick brown fox"

func TestLifecycle(t *testing.T) {
	c := New()
	if c.State() != Idle {
		t.Fatalf("fresh controller must be idle, got %s", c.State())
	}

	c.Begin(4)
	if c.State() != Selecting {
		t.Fatalf("expected selecting, got %s", c.State())
	}

	c.Extend(9)
	r, ok := c.Commit(buffer)
	if !ok {
		t.Fatal("expected committed selection")
	}
	if r.Start != 4 || r.End != 9 || r.Text != "quick" {
		t.Errorf("unexpected range %+v", r)
	}
	if c.State() != Selected {
		t.Errorf("expected selected, got %s", c.State())
	}
}

func TestEmptyCommitReturnsToIdle(t *testing.T) {
	c := New()
	c.Begin(7)
	// No Extend: anchor == head.
	if _, ok := c.Commit(buffer); ok {
		t.Error("zero-length range must not commit")
	}
	if c.State() != Idle {
		t.Errorf("expected idle after empty commit, got %s", c.State())
	}
	if _, ok := c.Selection(); ok {
		t.Error("no selection must be reported as absence")
	}
}

func TestBackwardsSelectionNormalized(t *testing.T) {
	c := New()
	c.Begin(9)
	c.Extend(4)
	r, ok := c.Commit(buffer)
	if !ok || r.Start != 4 || r.End != 9 {
		t.Errorf("backwards gesture must normalize, got %+v ok=%v", r, ok)
	}
}

func TestCommitClampsToBuffer(t *testing.T) {
	c := New()
	c.Begin(-3)
	c.Extend(len(buffer) + 10)
	r, ok := c.Commit(buffer)
	if !ok || r.Start != 0 || r.End != len(buffer) {
		t.Errorf("expected clamped full-buffer range, got %+v ok=%v", r, ok)
	}
}

func TestConsumeReturnsToIdle(t *testing.T) {
	c := New()
	c.Begin(0)
	c.Extend(3)
	c.Commit(buffer)

	r, ok := c.Consume()
	if !ok || r.Text != "The" {
		t.Fatalf("expected consumed range, got %+v ok=%v", r, ok)
	}
	if c.State() != Idle {
		t.Errorf("consume must return to idle, got %s", c.State())
	}
	if _, ok := c.Consume(); ok {
		t.Error("a selection is consumable at most once")
	}
}

func TestActiveIndependentOfSelection(t *testing.T) {
	c := New()
	c.Begin(0)
	c.Extend(5)
	c.Commit(buffer)

	c.SetActive("ann-1")
	if id, ok := c.Active(); !ok || id != "ann-1" {
		t.Errorf("expected active ann-1, got %q ok=%v", id, ok)
	}
	if c.State() != Selected {
		t.Error("setting active must not disturb selection state")
	}

	c.SetActive("ann-2")
	if id, _ := c.Active(); id != "ann-2" {
		t.Error("new active id must replace the previous one")
	}
}

func TestClearActiveIf(t *testing.T) {
	c := New()
	c.SetActive("ann-1")
	c.ClearActiveIf("ann-9")
	if _, ok := c.Active(); !ok {
		t.Error("mismatched id must not clear active")
	}
	c.ClearActiveIf("ann-1")
	if _, ok := c.Active(); ok {
		t.Error("matching id must clear active")
	}
}

func TestResetForEdit(t *testing.T) {
	c := New()
	c.Begin(0)
	c.Extend(5)
	c.Commit(buffer)
	c.SetActive("ann-1")

	c.ResetForEdit()

	if c.State() != Idle {
		t.Errorf("edit must reset to idle, got %s", c.State())
	}
	if _, ok := c.Selection(); ok {
		t.Error("no selection may survive an edit")
	}
	if _, ok := c.Active(); ok {
		t.Error("no active annotation may survive an edit")
	}
}

func TestExtendIgnoredOutsideSelecting(t *testing.T) {
	c := New()
	c.Extend(5)
	if c.State() != Idle {
		t.Error("extend in idle must be a no-op")
	}
	if _, ok := c.Commit(buffer); ok {
		t.Error("commit without begin must fail")
	}
}
