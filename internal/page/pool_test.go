// pool_test.go - page pool behaviour: registration, creation/removal,
// and the lock/unlock protocol's interaction with listeners and holders.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package page

import "testing"

type recordingListener struct {
	locks, unlocks int
	lastInitiator  bool
}

func (l *recordingListener) Lock(initiator bool) error {
	l.locks++
	l.lastInitiator = initiator
	return nil
}

func (l *recordingListener) Unlock(initiator bool) error {
	l.unlocks++
	return nil
}

type recordingHolder struct {
	rebuilds int
}

func (h *recordingHolder) Rebuild(p *Pool) {
	h.rebuilds++
}

func TestCreatePageAllocatesZeroedPage(t *testing.T) {
	p := NewPool()
	pg, err := p.CreatePage(3, nil)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if pg.Index != 3 {
		t.Fatalf("expected index 3, got %d", pg.Index)
	}
	for i, b := range pg.Bytes {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, b)
		}
	}
}

func TestCreatePageDuplicateIndexFails(t *testing.T) {
	p := NewPool()
	if _, err := p.CreatePage(5, nil); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if _, err := p.CreatePage(5, nil); err != ErrPageExists {
		t.Fatalf("expected ErrPageExists, got %v", err)
	}
}

func TestRemovePageUnknownIndexFails(t *testing.T) {
	p := NewPool()
	if err := p.RemovePage(9, nil); err != ErrPageNotFound {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestRemoveAllPagesClearsPool(t *testing.T) {
	p := NewPool()
	p.CreatePage(1, nil)
	p.CreatePage(2, nil)
	if p.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", p.PageCount())
	}
	if err := p.RemoveAllPages(nil); err != nil {
		t.Fatalf("RemoveAllPages: %v", err)
	}
	if p.PageCount() != 0 {
		t.Fatalf("expected 0 pages after clear, got %d", p.PageCount())
	}
}

func TestLockCycleNotifiesListenersAndHoldersOnce(t *testing.T) {
	p := NewPool()
	l := &recordingListener{}
	h := &recordingHolder{}
	lr := p.RegisterListener(l)
	hr := p.RegisterHolder(h)
	defer lr.Release()
	defer hr.Release()

	if _, err := p.CreatePage(1, l); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if l.locks != 1 || l.unlocks != 1 {
		t.Fatalf("expected 1 lock/unlock, got %d/%d", l.locks, l.unlocks)
	}
	if !l.lastInitiator {
		t.Fatal("expected the creating listener to be marked as initiator")
	}
	if h.rebuilds != 1 {
		t.Fatalf("expected 1 rebuild, got %d", h.rebuilds)
	}
}

func TestLockCycleMarksNonInitiatorsFalse(t *testing.T) {
	p := NewPool()
	initiator := &recordingListener{}
	bystander := &recordingListener{}
	r1 := p.RegisterListener(initiator)
	r2 := p.RegisterListener(bystander)
	defer r1.Release()
	defer r2.Release()

	if _, err := p.CreatePage(1, initiator); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if !initiator.lastInitiator {
		t.Fatal("expected initiator.lastInitiator true")
	}
	if bystander.lastInitiator {
		t.Fatal("expected bystander.lastInitiator false")
	}
}

func TestReleaseStopsFurtherNotifications(t *testing.T) {
	p := NewPool()
	l := &recordingListener{}
	reg := p.RegisterListener(l)
	reg.Release()
	reg.Release() // must be idempotent

	if _, err := p.CreatePage(1, nil); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if l.locks != 0 {
		t.Fatalf("expected released listener to see no locks, got %d", l.locks)
	}
}

func TestResizeGrowsCapacityWithoutLosingPages(t *testing.T) {
	p := NewPool()
	p.CreatePage(1, nil)
	p.CreatePage(2, nil)
	if err := p.Resize(64, nil); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if p.PageCount() != 2 {
		t.Fatalf("expected 2 pages to survive resize, got %d", p.PageCount())
	}
	if p.Lookup(1) == nil || p.Lookup(2) == nil {
		t.Fatal("expected both pages still mapped after resize")
	}
}

func TestResizeNotifiesListenersAndHolders(t *testing.T) {
	p := NewPool()
	l := &recordingListener{}
	h := &recordingHolder{}
	lr := p.RegisterListener(l)
	hr := p.RegisterHolder(h)
	defer lr.Release()
	defer hr.Release()

	if err := p.Resize(16, l); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if l.locks != 1 || l.unlocks != 1 {
		t.Fatalf("expected 1 lock/unlock, got %d/%d", l.locks, l.unlocks)
	}
	if h.rebuilds != 1 {
		t.Fatalf("expected 1 rebuild, got %d", h.rebuilds)
	}
}

func TestLookupReturnsNilForUnmapped(t *testing.T) {
	p := NewPool()
	if p.Lookup(42) != nil {
		t.Fatal("expected nil for unmapped index")
	}
	p.CreatePage(42, nil)
	if p.Lookup(42) == nil {
		t.Fatal("expected non-nil after CreatePage")
	}
}
