// Package cart is the storefront's cart: which books are in it, how many of
// each, whether the discount applies, and what it all costs.
package cart

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/money"
)

type entry struct {
	qty int
	seq uint64
}

// Engine owns one cart. Every operation is applied atomically, so intents
// arriving from concurrent requests are still applied one at a time.
type Engine struct {
	mu       sync.Mutex
	books    Catalog
	lines    map[string]*entry
	nextSeq  uint64
	discount bool
	pending  *ClearRequest
	now      func() time.Time

	emitMu    sync.Mutex
	obsMu     sync.Mutex
	observers map[uint64]func(Change)
	nextObs   uint64
}

func NewEngine(books Catalog) *Engine {
	return &Engine{
		books:     books,
		lines:     make(map[string]*entry),
		now:       time.Now,
		observers: make(map[uint64]func(Change)),
	}
}

// Subscribe registers fn for every subsequent change. Observers run in
// order of the changes and may read the engine or (un)subscribe, but must
// not mutate it.
func (e *Engine) Subscribe(fn func(Change)) (unsubscribe func()) {
	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

func (e *Engine) subscribers() []func(Change) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	ids := make([]uint64, 0, len(e.observers))
	for id := range e.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	obs := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		obs = append(obs, e.observers[id])
	}
	return obs
}

// commit releases mu and hands the changes to the observers. emitMu is taken
// before mu is released so notifications keep the order of the mutations.
func (e *Engine) commit(changes []Change) {
	if len(changes) == 0 {
		e.mu.Unlock()
		return
	}
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	obs := e.subscribers()
	for _, c := range changes {
		for _, fn := range obs {
			fn(c)
		}
	}
}

// contentsChanged drops a pending clear: a confirmation must apply to the
// contents the user was shown.
func (e *Engine) contentsChanged(changes []Change) []Change {
	if e.pending == nil {
		return changes
	}
	id := e.pending.ID
	e.pending = nil
	return append(changes, Change{Kind: ClearCancelled, RequestID: id, Discount: e.discount})
}

// Add puts the book in the cart at quantity 1. A book already in the cart
// is reset to 1, not incremented.
func (e *Engine) Add(bookID string) error {
	if _, ok := e.books.Lookup(bookID); !ok {
		return ErrUnknownBook
	}
	e.mu.Lock()
	var changes []Change
	if l, ok := e.lines[bookID]; ok {
		if l.qty != 1 {
			l.qty = 1
			changes = append(changes, Change{Kind: LineUpdated, BookID: bookID, Quantity: 1, Discount: e.discount})
		}
	} else {
		e.insert(bookID)
		changes = append(changes, Change{Kind: LineAdded, BookID: bookID, Quantity: 1, Discount: e.discount})
	}
	if len(changes) > 0 {
		changes = e.contentsChanged(changes)
	}
	e.commit(changes)
	return nil
}

// UpdateQuantity moves the quantity one step. Incrementing an absent book
// adds it at 1; decrementing to 0 removes the line; decrementing an absent
// book does nothing.
func (e *Engine) UpdateQuantity(bookID string, increment bool) error {
	if increment {
		if _, ok := e.books.Lookup(bookID); !ok {
			return ErrUnknownBook
		}
	}
	e.mu.Lock()
	var changes []Change
	l, present := e.lines[bookID]
	switch {
	case increment && !present:
		e.insert(bookID)
		changes = append(changes, Change{Kind: LineAdded, BookID: bookID, Quantity: 1, Discount: e.discount})
	case increment:
		l.qty++
		changes = append(changes, Change{Kind: LineUpdated, BookID: bookID, Quantity: l.qty, Discount: e.discount})
	case !present:
	case l.qty <= 1:
		delete(e.lines, bookID)
		changes = append(changes, Change{Kind: LineRemoved, BookID: bookID, Discount: e.discount})
	default:
		l.qty--
		changes = append(changes, Change{Kind: LineUpdated, BookID: bookID, Quantity: l.qty, Discount: e.discount})
	}
	if len(changes) > 0 {
		changes = e.contentsChanged(changes)
	}
	e.commit(changes)
	return nil
}

func (e *Engine) insert(bookID string) {
	e.lines[bookID] = &entry{qty: 1, seq: e.nextSeq}
	e.nextSeq++
}

// Clear empties the cart. The discount flag is kept. Clearing an empty cart
// with no pending request changes nothing and emits nothing.
func (e *Engine) Clear() {
	e.mu.Lock()
	if len(e.lines) == 0 && e.pending == nil {
		e.commit(nil)
		return
	}
	e.commit(e.clearLocked(uuid.Nil))
}

func (e *Engine) clearLocked(confirmed uuid.UUID) []Change {
	e.lines = make(map[string]*entry)
	if confirmed != uuid.Nil {
		e.pending = nil
		return []Change{{Kind: ClearConfirmed, Discount: e.discount, RequestID: confirmed}}
	}
	return e.contentsChanged([]Change{{Kind: Cleared, Discount: e.discount}})
}

func (e *Engine) SetDiscountEnabled(enabled bool) {
	e.mu.Lock()
	if e.discount == enabled {
		e.commit(nil)
		return
	}
	e.discount = enabled
	e.commit([]Change{{Kind: DiscountChanged, Discount: enabled}})
}

// RequestClear opens the confirmation step of a clear. A newer request
// replaces an older one. Nothing is removed until ConfirmClear.
func (e *Engine) RequestClear() (ClearRequest, error) {
	e.mu.Lock()
	if len(e.lines) == 0 {
		e.mu.Unlock()
		return ClearRequest{}, ErrCartEmpty
	}
	var changes []Change
	if e.pending != nil {
		changes = append(changes, Change{Kind: ClearCancelled, RequestID: e.pending.ID, Discount: e.discount})
	}
	req := ClearRequest{ID: uuid.New(), RequestedAt: e.now()}
	e.pending = &req
	changes = append(changes, Change{Kind: ClearRequested, RequestID: req.ID, Discount: e.discount})
	e.commit(changes)
	return req, nil
}

// ConfirmClear clears the cart if id names the pending request.
func (e *Engine) ConfirmClear(id uuid.UUID) error {
	e.mu.Lock()
	if e.pending == nil || e.pending.ID != id {
		e.mu.Unlock()
		return ErrNoPendingClear
	}
	e.commit(e.clearLocked(id))
	return nil
}

// CancelClear drops the pending request. The cart is left exactly as it was.
func (e *Engine) CancelClear(id uuid.UUID) error {
	e.mu.Lock()
	if e.pending == nil || e.pending.ID != id {
		e.mu.Unlock()
		return ErrNoPendingClear
	}
	e.pending = nil
	e.commit([]Change{{Kind: ClearCancelled, RequestID: id, Discount: e.discount}})
	return nil
}

func (e *Engine) PendingClear() (ClearRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return ClearRequest{}, false
	}
	return *e.pending, true
}

// Snapshot copies the cart. Lines follow catalog order; books the catalog
// does not know go last in the order they were added.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	type keyed struct {
		id string
		*entry
	}
	all := make([]keyed, 0, len(e.lines))
	for id, l := range e.lines {
		all = append(all, keyed{id, l})
	}
	sort.Slice(all, func(i, j int) bool {
		pi, pj := e.books.Position(all[i].id), e.books.Position(all[j].id)
		switch {
		case pi == pj:
			return all[i].seq < all[j].seq
		case pi < 0:
			return false
		case pj < 0:
			return true
		}
		return pi < pj
	})

	st := State{Lines: make([]Line, 0, len(all)), DiscountEnabled: e.discount}
	for _, k := range all {
		st.Lines = append(st.Lines, Line{BookID: k.id, Quantity: k.qty})
	}
	if e.pending != nil {
		p := *e.pending
		st.PendingClear = &p
	}
	return st
}

func (e *Engine) Total() money.Amount        { return e.Snapshot().Total(e.books) }
func (e *Engine) ItemCount() int             { return e.Snapshot().ItemCount() }
func (e *Engine) IsEmpty() bool              { return e.Snapshot().IsEmpty() }
func (e *Engine) Quantity(bookID string) int { return e.Snapshot().Quantity(bookID) }
func (e *Engine) Lines() []Line              { return e.Snapshot().Lines }

func (e *Engine) DiscountEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.discount
}

// Display is the screen model of the cart over the given books.
func (e *Engine) Display(books []catalog.Book) Screen {
	st := e.Snapshot()
	return NewScreen(books, st, st.Total(e.books))
}
