// pool.go - the Page Pool: owner of all live Pages, coordinator of the
// lock/unlock protocol that lets Pages be created, removed or relocated
// while every holder's direct page table is kept coherent.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package page

import (
	"errors"
	"sync"
)

// ErrPageExists is returned by CreatePage when the index is already mapped.
var ErrPageExists = errors.New("page: index already mapped")

// ErrPageNotFound is returned by RemovePage when the index has no Page.
var ErrPageNotFound = errors.New("page: index not mapped")

// Listener is anything that must be quiesced before the Pool may mutate its
// layout — in practice a CPU sharing this Pool's memory. Lock blocks until
// the listener has paused (or confirmed it is already inside a memory
// event of its own); Unlock releases it. The initiator flag is true for
// the listener whose own access triggered the cycle.
type Listener interface {
	Lock(initiator bool) error
	Unlock(initiator bool) error
}

// Holder is anything keeping a direct page table derived from the Pool's
// layout — a memview.View. Rebuild is called with the lock cycle's mutation
// already applied, once per unlock, so the holder can repopulate its table
// from the Pool's current (indices, pages) arrays.
type Holder interface {
	Rebuild(p *Pool)
}

// Registration is the token returned by RegisterHolder/RegisterListener. A
// holder or listener must call Release before it is torn down; this
// replaces the original implementation's use of an unsafe 'static
// lifetime-widened reference with explicit, revocable registration.
type Registration struct {
	release func()
	once    sync.Once
}

// Release unregisters the holder or listener. Safe to call more than once.
func (r *Registration) Release() {
	r.once.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
}

// Pool owns the dynamic collection of Pages and coordinates layout changes
// across every registered Holder and Listener. The zero value is not
// usable; construct with NewPool.
type Pool struct {
	// cycleMu serialises whole lock cycles: LockBegin..mutate..LockEnd runs
	// under it so two concurrent CreatePage calls cannot interleave their
	// listener notifications.
	cycleMu sync.Mutex

	// mu protects the slices and registration maps themselves; critical
	// sections under it are always short (no blocking calls to holders or
	// listeners happen while it is held).
	mu        sync.Mutex
	indices   []uint16
	pages     []*Page
	holders   map[uint64]Holder
	listeners map[uint64]Listener
	nextRegID uint64
}

// NewPool constructs an empty Page Pool.
func NewPool() *Pool {
	return &Pool{
		holders:   make(map[uint64]Holder),
		listeners: make(map[uint64]Listener),
	}
}

// RegisterHolder adds a Holder that will be asked to Rebuild after every
// unlock. Returns a Registration the caller must Release on teardown.
func (p *Pool) RegisterHolder(h Holder) *Registration {
	p.mu.Lock()
	id := p.nextRegID
	p.nextRegID++
	p.holders[id] = h
	p.mu.Unlock()

	return &Registration{release: func() {
		p.mu.Lock()
		delete(p.holders, id)
		p.mu.Unlock()
	}}
}

// RegisterListener adds a Listener that will be asked to Lock/Unlock around
// every mutating cycle. Returns a Registration the caller must Release on
// teardown.
func (p *Pool) RegisterListener(l Listener) *Registration {
	p.mu.Lock()
	id := p.nextRegID
	p.nextRegID++
	p.listeners[id] = l
	p.mu.Unlock()

	return &Registration{release: func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}}
}

// snapshotListeners and snapshotHolders return stable slices of the
// current listeners/holders so the
// lock cycle can call out to them without holding mu (a listener's Lock
// can block for a while waiting on a CPU to notice its pause request).
func (p *Pool) snapshotListeners() []Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		out = append(out, l)
	}
	return out
}

func (p *Pool) snapshotHolders() []Holder {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Holder, 0, len(p.holders))
	for _, h := range p.holders {
		out = append(out, h)
	}
	return out
}

// lockCycle runs mutate between lock_begin and lock_end: every listener is
// asked to pause (the one that is == initiator is told initiator=true, so
// it can recognise its own cycle), mutate runs, every holder rebuilds its
// view of the (indices, pages) arrays, and every listener is released.
func (p *Pool) lockCycle(initiator Listener, mutate func()) error {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	listeners := p.snapshotListeners()
	for _, l := range listeners {
		if err := l.Lock(l == initiator); err != nil {
			return err
		}
	}

	mutate()

	for _, h := range p.snapshotHolders() {
		h.Rebuild(p)
	}
	for _, l := range listeners {
		if err := l.Unlock(l == initiator); err != nil {
			return err
		}
	}
	return nil
}

// CreatePage allocates a fresh zeroed Page for index and runs a full lock
// cycle so every holder's table reflects it before CreatePage returns.
// initiator may be nil when the caller is not itself a registered Listener
// (e.g. a test pre-populating the pool).
func (p *Pool) CreatePage(index uint16, initiator Listener) (*Page, error) {
	var result *Page
	var mutateErr error

	err := p.lockCycle(initiator, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, idx := range p.indices {
			if idx == index {
				mutateErr = ErrPageExists
				return
			}
		}
		pg := newPage(index)
		p.indices = append(p.indices, index)
		p.pages = append(p.pages, pg)
		result = pg
	})
	if err != nil {
		return nil, err
	}
	if mutateErr != nil {
		return nil, mutateErr
	}
	return result, nil
}

// RemovePage drops the Page at index, running a full lock cycle.
func (p *Pool) RemovePage(index uint16, initiator Listener) error {
	var mutateErr error
	err := p.lockCycle(initiator, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, idx := range p.indices {
			if idx == index {
				p.indices = append(p.indices[:i], p.indices[i+1:]...)
				p.pages = append(p.pages[:i], p.pages[i+1:]...)
				return
			}
		}
		mutateErr = ErrPageNotFound
	})
	if err != nil {
		return err
	}
	return mutateErr
}

// RemoveAllPages clears the pool, running a full lock cycle.
func (p *Pool) RemoveAllPages(initiator Listener) error {
	return p.lockCycle(initiator, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.indices = nil
		p.pages = nil
	})
}

// Resize reallocates the pool's backing (indices, pages) arrays to at least
// newCapacity entries, running a full lock cycle like any other layout
// change. Existing Pages are copied into the fresh arrays — their own byte
// buffers never move, only the parallel array that tracks them — so every
// Page reference handed out before the call remains valid. newCapacity
// below the current page count is clamped up to the current count; Resize
// never drops a mapped page.
func (p *Pool) Resize(newCapacity int, initiator Listener) error {
	return p.lockCycle(initiator, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if newCapacity < len(p.indices) {
			newCapacity = len(p.indices)
		}
		indices := make([]uint16, len(p.indices), newCapacity)
		copy(indices, p.indices)
		pages := make([]*Page, len(p.pages), newCapacity)
		copy(pages, p.pages)
		p.indices = indices
		p.pages = pages
	})
}

// Snapshot returns the current (indices, pages) arrays, in the same order,
// for a Holder to rebuild its table from inside Rebuild. The slices must
// not be mutated by the caller.
func (p *Pool) Snapshot() ([]uint16, []*Page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indices, p.pages
}

// PageCount reports how many Pages are currently mapped.
func (p *Pool) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.indices)
}

// Lookup returns the Page at index, or nil if unmapped. Safe to call
// without holding a lock cycle — it only reads the current snapshot.
func (p *Pool) Lookup(index uint16) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, idx := range p.indices {
		if idx == index {
			return p.pages[i]
		}
	}
	return nil
}
