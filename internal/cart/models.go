package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/money"
)

var (
	ErrUnknownBook    = errors.New("unknown book")
	ErrNoPendingClear = errors.New("no matching clear request pending")
	ErrCartEmpty      = errors.New("cart is empty")
)

// DiscountRate scales the whole total when the discount is on.
const DiscountRate = "0.9"

// Catalog resolves a book id to the book it names and its place in the
// list. *catalog.Snapshot satisfies it.
type Catalog interface {
	Lookup(id string) (catalog.Book, bool)
	Position(id string) int
}

// Line is one book in the cart. Quantity is always at least 1.
type Line struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// ClearRequest is a clear waiting for the user's yes or no.
type ClearRequest struct {
	ID          uuid.UUID `json:"id"`
	RequestedAt time.Time `json:"requested_at"`
}

// State is a copy of the cart at one point in time.
type State struct {
	Lines           []Line        `json:"lines"`
	DiscountEnabled bool          `json:"discount_enabled"`
	PendingClear    *ClearRequest `json:"pending_clear,omitempty"`
}

func (s State) IsEmpty() bool { return len(s.Lines) == 0 }

func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

func (s State) Quantity(bookID string) int {
	for _, l := range s.Lines {
		if l.BookID == bookID {
			return l.Quantity
		}
	}
	return 0
}

// Total sums quantity × price over the lines and applies the discount.
// It is not rounded; callers round once when rendering.
func (s State) Total(c Catalog) money.Amount {
	sum := money.Zero
	for _, l := range s.Lines {
		b, ok := c.Lookup(l.BookID)
		if !ok {
			continue
		}
		sum = sum.Add(b.Price.Mul(l.Quantity))
	}
	if s.DiscountEnabled {
		sum = sum.Scale(DiscountRate)
	}
	return sum
}

type ChangeKind string

const (
	LineAdded       ChangeKind = "line.added"
	LineUpdated     ChangeKind = "line.updated"
	LineRemoved     ChangeKind = "line.removed"
	Cleared         ChangeKind = "cleared"
	DiscountChanged ChangeKind = "discount.changed"
	ClearRequested  ChangeKind = "clear.requested"
	ClearCancelled  ChangeKind = "clear.cancelled"
	ClearConfirmed  ChangeKind = "clear.confirmed"
)

// Change describes one state transition. Only the fields relevant to Kind
// are set.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	BookID    string     `json:"book_id,omitempty"`
	Quantity  int        `json:"quantity"`
	Discount  bool       `json:"discount"`
	RequestID uuid.UUID  `json:"request_id"`
}
