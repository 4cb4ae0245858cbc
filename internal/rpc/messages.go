package rpc

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahinestrog/bestsellers/internal/cart"
	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/money"
)

type Empty struct{}

type Book struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Author   string       `json:"author"`
	Price    money.Amount `json:"price"`
	ImageURL string       `json:"image_url"`
}

type BookList struct {
	Books []*Book `json:"books"`
}

type BookRef struct {
	BookID string `json:"book_id"`
}

// Catalog states as reported by Status.
const (
	CatalogLoading     = "loading"
	CatalogReady       = "ready"
	CatalogUnavailable = "unavailable"
)

type CatalogStatus struct {
	State    string    `json:"state"`
	Reason   string    `json:"reason,omitempty"`
	Books    int       `json:"books"`
	LoadedAt time.Time `json:"loaded_at"`
}

// QuantityChange moves a line by one step; Delta is +1 or -1.
type QuantityChange struct {
	BookID string `json:"book_id"`
	Delta  int32  `json:"delta"`
}

type DiscountToggle struct {
	Enabled bool `json:"enabled"`
}

// ClearPrompt is an open request to clear the cart.
type ClearPrompt struct {
	RequestID   uuid.UUID `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
}

type ClearDecision struct {
	RequestID uuid.UUID `json:"request_id"`
}

type LineView struct {
	BookID    string       `json:"book_id"`
	Title     string       `json:"title"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	LineTotal money.Amount `json:"line_total"`
}

// CartView is the cart after an intent. Total is rounded to cents on the wire
// by the money encoding.
type CartView struct {
	Lines        []*LineView  `json:"lines"`
	Total        money.Amount `json:"total"`
	ItemCount    int          `json:"item_count"`
	Discount     bool         `json:"discount"`
	PendingClear *ClearPrompt `json:"pending_clear,omitempty"`
}

// ---- mapping domain <-> wire ----

func BookFromDomain(b catalog.Book) *Book {
	return &Book{ID: b.ID, Title: b.Title, Author: b.Author, Price: b.Price, ImageURL: b.ImageURL}
}

func (b *Book) Domain() catalog.Book {
	return catalog.Book{ID: b.ID, Title: b.Title, Author: b.Author, Price: b.Price, ImageURL: b.ImageURL}
}

func BookListFromDomain(books []catalog.Book) *BookList {
	out := &BookList{Books: make([]*Book, 0, len(books))}
	for _, b := range books {
		out.Books = append(out.Books, BookFromDomain(b))
	}
	return out
}

func (l *BookList) Domain() []catalog.Book {
	if l == nil {
		return nil
	}
	out := make([]catalog.Book, 0, len(l.Books))
	for _, b := range l.Books {
		if b != nil {
			out = append(out, b.Domain())
		}
	}
	return out
}

// CartViewFromState prices the lines against c. Lines whose book c does not
// know are reported without a price.
func CartViewFromState(st cart.State, c cart.Catalog) *CartView {
	v := &CartView{
		Lines:     make([]*LineView, 0, len(st.Lines)),
		Total:     st.Total(c),
		ItemCount: st.ItemCount(),
		Discount:  st.DiscountEnabled,
	}
	for _, l := range st.Lines {
		lv := &LineView{BookID: l.BookID, Quantity: l.Quantity}
		if b, ok := c.Lookup(l.BookID); ok {
			lv.Title = b.Title
			lv.UnitPrice = b.Price
			lv.LineTotal = b.Price.Mul(l.Quantity)
		}
		v.Lines = append(v.Lines, lv)
	}
	if st.PendingClear != nil {
		v.PendingClear = &ClearPrompt{RequestID: st.PendingClear.ID, RequestedAt: st.PendingClear.RequestedAt}
	}
	return v
}

// State turns the view back into the cart state it was taken from.
func (v *CartView) State() cart.State {
	st := cart.State{Lines: make([]cart.Line, 0, len(v.Lines)), DiscountEnabled: v.Discount}
	for _, l := range v.Lines {
		st.Lines = append(st.Lines, cart.Line{BookID: l.BookID, Quantity: l.Quantity})
	}
	if v.PendingClear != nil {
		st.PendingClear = &cart.ClearRequest{ID: v.PendingClear.RequestID, RequestedAt: v.PendingClear.RequestedAt}
	}
	return st
}
