package catalog

import (
	"errors"
	"fmt"

	"github.com/ahinestrog/bestsellers/internal/money"
)

// ErrCatalogUnavailable is returned when the bestseller list cannot be
// fetched or does not look like one.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

type Book struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Author   string       `json:"author"`
	Price    money.Amount `json:"price"`
	ImageURL string       `json:"image_url"`
}

// Snapshot is the catalog as loaded once for the session. It is never
// mutated after NewSnapshot returns.
type Snapshot struct {
	books []Book
	index map[string]int
}

func NewSnapshot(books []Book) (*Snapshot, error) {
	s := &Snapshot{
		books: make([]Book, len(books)),
		index: make(map[string]int, len(books)),
	}
	copy(s.books, books)
	for i, b := range s.books {
		if b.ID == "" {
			return nil, fmt.Errorf("book #%d has no id", i)
		}
		if _, dup := s.index[b.ID]; dup {
			return nil, fmt.Errorf("duplicate book id %s", b.ID)
		}
		s.index[b.ID] = i
	}
	return s, nil
}

// Lookup is safe on a nil snapshot; nothing is found.
func (s *Snapshot) Lookup(id string) (Book, bool) {
	if s == nil {
		return Book{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Book{}, false
	}
	return s.books[i], true
}

// Position is the source order of the book, -1 when unknown.
func (s *Snapshot) Position(id string) int {
	if s == nil {
		return -1
	}
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

func (s *Snapshot) Books() []Book {
	if s == nil {
		return nil
	}
	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.books)
}
