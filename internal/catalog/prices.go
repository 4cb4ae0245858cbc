package catalog

import (
	"math/rand/v2"
	"sync"

	"github.com/ahinestrog/bestsellers/internal/money"
)

// Synthesized prices lie in [MinPriceCents, MaxPriceCents].
const (
	MinPriceCents = 1500
	MaxPriceCents = 3000
)

// PriceSource assigns a display price to a book. The feed carries none.
type PriceSource interface {
	PriceFor(bookID string) money.Amount
}

type randomPrices struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// RandomPrices draws a fresh price for every call.
func RandomPrices() PriceSource {
	return &randomPrices{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededPrices yields the same sequence of prices for the same seed.
func NewSeededPrices(seed uint64) PriceSource {
	return &randomPrices{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *randomPrices) PriceFor(string) money.Amount {
	p.mu.Lock()
	defer p.mu.Unlock()
	cents := MinPriceCents + p.rnd.Int64N(MaxPriceCents-MinPriceCents+1)
	return money.FromCents(cents)
}

// FixedPrices prices every book the same, or by id when present in ByID.
type FixedPrices struct {
	Default money.Amount
	ByID    map[string]money.Amount
}

func (f FixedPrices) PriceFor(bookID string) money.Amount {
	if p, ok := f.ByID[bookID]; ok {
		return p
	}
	return f.Default
}
